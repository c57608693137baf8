package wcs

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// XML namespaces used by WCS 2.0 capabilities and coverage descriptions.
const (
	NamespaceWCS20 = "http://www.opengis.net/wcs/2.0"
	NamespaceGML32 = "http://www.opengis.net/gml/3.2"
	NamespaceOWS20 = "http://www.opengis.net/ows/2.0"
)

// Rect is an axis-aligned rectangle in x/y order.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// NativeBoundingBox is a bounding box expressed in the coverage's native
// spatial reference system, identified by a URN-style URI such as
// "http://www.opengis.net/def/crs/EPSG/0/4326".
type NativeBoundingBox struct {
	NativeSRS string
	Rect      Rect
}

// Coverage is the metadata advertised for a single coverage in the
// capabilities document.
type Coverage struct {
	ID       string
	Title    string
	Abstract string
	Keywords []string

	// BoundingBox is the version agnostic box with no CRS attached. Real
	// world WCS 2.0 servers do not populate it; consumers must tolerate
	// an unset CRS when it is present.
	BoundingBox *Rect

	// WGS84BoundingBox is the box normalized to EPSG:4326.
	WGS84BoundingBox *Rect

	// NativeBoundingBoxes are the boxes expressed in native reference
	// systems, in document order.
	NativeBoundingBoxes []NativeBoundingBox
}

// ServiceIdentification is the top-level identification block of a
// capabilities document.
type ServiceIdentification struct {
	Title    string
	Abstract string
	Keywords []string
	Version  string
}

// ServiceContact describes the point of contact advertised by the server.
type ServiceContact struct {
	Name         string
	Organization string
	Position     string
	Phone        string
	City         string
	Region       string
	PostCode     string
	Country      string
	Email        string
}

// ServiceProvider is the provider block of a capabilities document.
type ServiceProvider struct {
	Name    string
	Contact ServiceContact
}

// Capabilities is the decoded GetCapabilities response.
type Capabilities struct {
	Version        string
	Identification ServiceIdentification
	Provider       ServiceProvider

	// Coverages holds every advertised coverage in endpoint-reported order.
	Coverages []Coverage
}

// Coverage returns the coverage advertised under the given identifier.
func (c *Capabilities) Coverage(id string) (Coverage, bool) {
	for _, cov := range c.Coverages {
		if cov.ID == id {
			return cov, true
		}
	}
	return Coverage{}, false
}

// Raw capabilities document, mapped 1:1 onto the WCS 2.0 / OWS 2.0 schema.

type capabilitiesDoc struct {
	XMLName        xml.Name          `xml:"http://www.opengis.net/wcs/2.0 Capabilities"`
	Version        string            `xml:"version,attr"`
	Identification xmlIdentification `xml:"http://www.opengis.net/ows/2.0 ServiceIdentification"`
	Provider       xmlProvider       `xml:"http://www.opengis.net/ows/2.0 ServiceProvider"`
	Contents       xmlContents       `xml:"http://www.opengis.net/wcs/2.0 Contents"`
}

type xmlIdentification struct {
	Title    string      `xml:"http://www.opengis.net/ows/2.0 Title"`
	Abstract string      `xml:"http://www.opengis.net/ows/2.0 Abstract"`
	Keywords xmlKeywords `xml:"http://www.opengis.net/ows/2.0 Keywords"`
}

type xmlKeywords struct {
	Keyword []string `xml:"http://www.opengis.net/ows/2.0 Keyword"`
}

type xmlProvider struct {
	Name    string `xml:"http://www.opengis.net/ows/2.0 ProviderName"`
	Contact struct {
		IndividualName string `xml:"http://www.opengis.net/ows/2.0 IndividualName"`
		PositionName   string `xml:"http://www.opengis.net/ows/2.0 PositionName"`
		ContactInfo    struct {
			Phone struct {
				Voice string `xml:"http://www.opengis.net/ows/2.0 Voice"`
			} `xml:"http://www.opengis.net/ows/2.0 Phone"`
			Address struct {
				City               string `xml:"http://www.opengis.net/ows/2.0 City"`
				AdministrativeArea string `xml:"http://www.opengis.net/ows/2.0 AdministrativeArea"`
				PostalCode         string `xml:"http://www.opengis.net/ows/2.0 PostalCode"`
				Country            string `xml:"http://www.opengis.net/ows/2.0 Country"`
				Email              string `xml:"http://www.opengis.net/ows/2.0 ElectronicMailAddress"`
			} `xml:"http://www.opengis.net/ows/2.0 Address"`
		} `xml:"http://www.opengis.net/ows/2.0 ContactInfo"`
	} `xml:"http://www.opengis.net/ows/2.0 ServiceContact"`
}

type xmlContents struct {
	Summaries []xmlCoverageSummary `xml:"http://www.opengis.net/wcs/2.0 CoverageSummary"`
}

type xmlCoverageSummary struct {
	CoverageID       string           `xml:"http://www.opengis.net/wcs/2.0 CoverageId"`
	Title            string           `xml:"http://www.opengis.net/ows/2.0 Title"`
	Abstract         string           `xml:"http://www.opengis.net/ows/2.0 Abstract"`
	Keywords         xmlKeywords      `xml:"http://www.opengis.net/ows/2.0 Keywords"`
	WGS84BoundingBox *xmlCorners      `xml:"http://www.opengis.net/ows/2.0 WGS84BoundingBox"`
	BoundingBoxes    []xmlBoundingBox `xml:"http://www.opengis.net/ows/2.0 BoundingBox"`
}

type xmlCorners struct {
	LowerCorner string `xml:"http://www.opengis.net/ows/2.0 LowerCorner"`
	UpperCorner string `xml:"http://www.opengis.net/ows/2.0 UpperCorner"`
}

type xmlBoundingBox struct {
	CRS string `xml:"crs,attr"`
	xmlCorners
}

func (d *capabilitiesDoc) toCapabilities() *Capabilities {
	caps := &Capabilities{
		Version: d.Version,
		Identification: ServiceIdentification{
			Title:    d.Identification.Title,
			Abstract: d.Identification.Abstract,
			Keywords: d.Identification.Keywords.Keyword,
			Version:  d.Version,
		},
		Provider: ServiceProvider{
			Name: d.Provider.Name,
			Contact: ServiceContact{
				Name:         d.Provider.Contact.IndividualName,
				Organization: d.Provider.Name,
				Position:     d.Provider.Contact.PositionName,
				Phone:        d.Provider.Contact.ContactInfo.Phone.Voice,
				City:         d.Provider.Contact.ContactInfo.Address.City,
				Region:       d.Provider.Contact.ContactInfo.Address.AdministrativeArea,
				PostCode:     d.Provider.Contact.ContactInfo.Address.PostalCode,
				Country:      d.Provider.Contact.ContactInfo.Address.Country,
				Email:        d.Provider.Contact.ContactInfo.Address.Email,
			},
		},
	}
	for _, s := range d.Contents.Summaries {
		cov := Coverage{
			ID:       s.CoverageID,
			Title:    s.Title,
			Abstract: s.Abstract,
			Keywords: s.Keywords.Keyword,
		}
		if s.WGS84BoundingBox != nil {
			if r, ok := s.WGS84BoundingBox.rect(); ok {
				cov.WGS84BoundingBox = &r
			}
		}
		for _, b := range s.BoundingBoxes {
			r, ok := b.rect()
			if !ok {
				continue
			}
			if b.CRS == "" {
				// A box with no reference system is the version agnostic
				// one; its CRS stays unknown.
				cov.BoundingBox = &r
				continue
			}
			cov.NativeBoundingBoxes = append(cov.NativeBoundingBoxes, NativeBoundingBox{
				NativeSRS: b.CRS,
				Rect:      r,
			})
		}
		caps.Coverages = append(caps.Coverages, cov)
	}
	return caps
}

// rect parses the corner coordinate lists. Corners that are absent or not
// numeric make the box unusable and are dropped by the caller.
func (c xmlCorners) rect() (Rect, bool) {
	lower := strings.Fields(c.LowerCorner)
	upper := strings.Fields(c.UpperCorner)
	if len(lower) < 2 || len(upper) < 2 {
		return Rect{}, false
	}
	coords := make([]float64, 4)
	for i, raw := range []string{lower[0], lower[1], upper[0], upper[1]} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Rect{}, false
		}
		coords[i] = v
	}
	return Rect{MinX: coords[0], MinY: coords[1], MaxX: coords[2], MaxY: coords[3]}, true
}
