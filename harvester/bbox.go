package harvester

import (
	"context"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/wcs"

	"github.com/paulmach/orb"
)

// crsWGS84 is the reference system assumed for WGS84-normalized boxes and
// for the whole-globe fallback.
const crsWGS84 = "EPSG:4326"

// ResolvedExtent is the normalized spatial/temporal extent of one coverage.
// The spatial extent is always present; the CRS may be empty when the
// source box carries no reference system. The temporal extent is present
// only when the source envelope encodes three dimensions with time first.
type ResolvedExtent struct {
	SpatialExtent  orb.Polygon
	CRS            string
	TemporalExtent *TemporalExtent
}

// Axis labels considered longitude-like and latitude-like when deciding
// whether envelope coordinates arrive in (lat, lon) order.
var (
	xAxisLabels = map[string]bool{"longitude": true, "lon": true, "long": true, "e": true, "w": true, "x": true}
	yAxisLabels = map[string]bool{"latitude": true, "lat": true, "n": true, "s": true, "y": true}
)

// resolveExtent normalizes the heterogeneous bounding box metadata of one
// coverage into a single extent. Sources are tried in a fixed priority
// order and the first one that yields a box wins; a source failing for any
// reason counts as "yields nothing". When nothing is resolvable the whole
// globe in WGS84 is assumed.
func (w *Worker) resolveExtent(ctx context.Context, cov wcs.Coverage) ResolvedExtent {
	sources := []func(context.Context, wcs.Coverage) *ResolvedExtent{
		w.extentFromPrimaryBox,
		w.extentFromWGS84Box,
		w.extentFromNativeBoxes,
		w.extentFromCoverageDescription,
	}
	for _, source := range sources {
		if extent := source(ctx, cov); extent != nil {
			return *extent
		}
	}
	return ResolvedExtent{
		SpatialExtent: polygonFromRect(wcs.Rect{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}),
		CRS:           crsWGS84,
	}
}

// extentFromPrimaryBox reads the version agnostic box. Observed WCS 2.0
// servers never populate it; when they do, the CRS is unknown and left
// empty.
func (w *Worker) extentFromPrimaryBox(_ context.Context, cov wcs.Coverage) *ResolvedExtent {
	if cov.BoundingBox == nil {
		return nil
	}
	return &ResolvedExtent{SpatialExtent: polygonFromRect(*cov.BoundingBox)}
}

func (w *Worker) extentFromWGS84Box(_ context.Context, cov wcs.Coverage) *ResolvedExtent {
	if cov.WGS84BoundingBox == nil {
		return nil
	}
	return &ResolvedExtent{
		SpatialExtent: polygonFromRect(*cov.WGS84BoundingBox),
		CRS:           crsWGS84,
	}
}

func (w *Worker) extentFromNativeBoxes(_ context.Context, cov wcs.Coverage) *ResolvedExtent {
	if len(cov.NativeBoundingBoxes) == 0 {
		return nil
	}
	box := cov.NativeBoundingBoxes[0]
	return &ResolvedExtent{
		SpatialExtent: polygonFromRect(box.Rect),
		CRS:           crsFromSRSURI(box.NativeSRS),
	}
}

// extentFromCoverageDescription re-parses the raw DescribeCoverage document
// for envelopes the capabilities mapping does not carry, notably the
// time-aware three dimensional ones produced by rasdaman-style servers.
func (w *Worker) extentFromCoverageDescription(ctx context.Context, cov wcs.Coverage) *ResolvedExtent {
	body, err := w.client.DescribeCoverage(ctx, cov.ID)
	if err != nil {
		w.logger.WithField("coverage", cov.ID).Debugf("DescribeCoverage failed: %v", err)
		return nil
	}
	boxes := parseEnvelopes(body)
	if len(boxes) == 0 {
		return nil
	}
	box := boxes[0]
	return &ResolvedExtent{
		SpatialExtent:  polygonFromRect(box.rect),
		CRS:            crsFromSRSURI(box.nativeSRS),
		TemporalExtent: box.temporalExtent,
	}
}

type envelopeBox struct {
	nativeSRS      string
	rect           wcs.Rect
	temporalExtent *TemporalExtent
}

type describeCoverageDoc struct {
	XMLName      xml.Name `xml:"http://www.opengis.net/wcs/2.0 CoverageDescriptions"`
	Descriptions []struct {
		BoundedBy struct {
			Envelopes []gmlEnvelope `xml:"http://www.opengis.net/gml/3.2 Envelope"`
		} `xml:"http://www.opengis.net/gml/3.2 boundedBy"`
	} `xml:"http://www.opengis.net/wcs/2.0 CoverageDescription"`
}

type gmlEnvelope struct {
	SRSName      string `xml:"srsName,attr"`
	SRSDimension string `xml:"srsDimension,attr"`
	AxisLabels   string `xml:"axisLabels,attr"`
	LowerCorner  string `xml:"http://www.opengis.net/gml/3.2 lowerCorner"`
	UpperCorner  string `xml:"http://www.opengis.net/gml/3.2 upperCorner"`
}

// parseEnvelopes scans a DescribeCoverage document for boundedBy envelopes.
// Envelopes missing expected attributes or coordinates are skipped, never
// reported: a malformed envelope means the source yields nothing.
func parseEnvelopes(body []byte) []envelopeBox {
	doc := &describeCoverageDoc{}
	if err := xml.Unmarshal(body, doc); err != nil {
		return nil
	}

	var boxes []envelopeBox
	for _, desc := range doc.Descriptions {
		for _, env := range desc.BoundedBy.Envelopes {
			if box, ok := envelopeToBox(env); ok {
				boxes = append(boxes, box)
			}
		}
	}
	return boxes
}

func envelopeToBox(env gmlEnvelope) (envelopeBox, bool) {
	dims, err := strconv.Atoi(env.SRSDimension)
	if err != nil {
		return envelopeBox{}, false
	}
	labels := strings.Fields(strings.ToLower(env.AxisLabels))
	lower := strings.Fields(env.LowerCorner)
	upper := strings.Fields(env.UpperCorner)
	if len(labels) < dims || len(lower) < dims || len(upper) < dims {
		return envelopeBox{}, false
	}

	box := envelopeBox{nativeSRS: env.SRSName}
	switch dims {
	case 2:
		if yAxisLabels[labels[0]] && xAxisLabels[labels[1]] {
			// Axes arrive as (lat, lon); swap into x/y order.
			return box.withCorners(lower[1], lower[0], upper[1], upper[0])
		}
		return box.withCorners(lower[0], lower[1], upper[0], upper[1])
	case 3:
		// Time is assumed to always occupy the first axis.
		box.temporalExtent = &TemporalExtent{
			Start: strings.ReplaceAll(lower[0], `"`, ""),
			End:   strings.ReplaceAll(upper[0], `"`, ""),
		}
		if yAxisLabels[labels[1]] && xAxisLabels[labels[2]] {
			return box.withCorners(lower[2], lower[1], upper[2], upper[1])
		}
		return box.withCorners(lower[1], lower[2], upper[1], upper[2])
	default:
		return box.withCorners(lower[0], lower[1], upper[0], upper[1])
	}
}

func (b envelopeBox) withCorners(minX, minY, maxX, maxY string) (envelopeBox, bool) {
	coords := make([]float64, 4)
	for i, raw := range []string{minX, minY, maxX, maxY} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return envelopeBox{}, false
		}
		coords[i] = v
	}
	b.rect = wcs.Rect{MinX: coords[0], MinY: coords[1], MaxX: coords[2], MaxY: coords[3]}
	return b, true
}

// crsFromSRSURI derives a "EPSG:4326" style identifier from a URN-style SRS
// URI such as "http://www.opengis.net/def/crs/EPSG/0/4326", joining the
// 3rd-from-last and last path segments.
func crsFromSRSURI(uri string) string {
	parts := strings.Split(uri, "/")
	if len(parts) < 3 {
		return uri
	}
	return parts[len(parts)-3] + ":" + parts[len(parts)-1]
}

// polygonFromRect builds the closed 4-corner planar polygon
// (minx,miny) (maxx,miny) (maxx,maxy) (minx,maxy).
func polygonFromRect(r wcs.Rect) orb.Polygon {
	bound := orb.Bound{
		Min: orb.Point{r.MinX, r.MinY},
		Max: orb.Point{r.MaxX, r.MaxY},
	}
	return bound.ToPolygon()
}
