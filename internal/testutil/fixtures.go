// Package testutil provides canned WCS documents for tests.
package testutil

import (
	"fmt"
	"net/http"
	"strings"
)

// CoverageFixture describes one coverage summary in a capabilities fixture.
type CoverageFixture struct {
	ID       string
	Title    string
	Abstract string
	Keywords []string

	// WGS84 is the ows:WGS84BoundingBox as [minx, miny, maxx, maxy].
	WGS84 *[4]float64

	// NativeSRS/Native populate an ows:BoundingBox with a crs attribute.
	NativeSRS string
	Native    *[4]float64
}

// Capabilities renders a WCS 2.0.1 GetCapabilities document.
func Capabilities(title, abstract string, coverages ...CoverageFixture) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<wcs:Capabilities xmlns:wcs="http://www.opengis.net/wcs/2.0" xmlns:ows="http://www.opengis.net/ows/2.0" version="2.0.1">
  <ows:ServiceIdentification>
`)
	if title != "" {
		fmt.Fprintf(&b, "    <ows:Title>%s</ows:Title>\n", title)
	}
	if abstract != "" {
		fmt.Fprintf(&b, "    <ows:Abstract>%s</ows:Abstract>\n", abstract)
	}
	b.WriteString(`    <ows:Keywords><ows:Keyword>rasdaman</ows:Keyword><ows:Keyword>coverages</ows:Keyword></ows:Keywords>
  </ows:ServiceIdentification>
  <ows:ServiceProvider>
    <ows:ProviderName>ACME Geo</ows:ProviderName>
    <ows:ServiceContact>
      <ows:IndividualName>Jane Roe</ows:IndividualName>
      <ows:PositionName>Administrator</ows:PositionName>
      <ows:ContactInfo>
        <ows:Phone><ows:Voice>+49 000 000</ows:Voice></ows:Phone>
        <ows:Address>
          <ows:City>Muenster</ows:City>
          <ows:AdministrativeArea>NRW</ows:AdministrativeArea>
          <ows:PostalCode>48155</ows:PostalCode>
          <ows:Country>Germany</ows:Country>
          <ows:ElectronicMailAddress>geo@example.com</ows:ElectronicMailAddress>
        </ows:Address>
      </ows:ContactInfo>
    </ows:ServiceContact>
  </ows:ServiceProvider>
  <wcs:Contents>
`)
	for _, cov := range coverages {
		b.WriteString("    <wcs:CoverageSummary>\n")
		fmt.Fprintf(&b, "      <wcs:CoverageId>%s</wcs:CoverageId>\n", cov.ID)
		if cov.Title != "" {
			fmt.Fprintf(&b, "      <ows:Title>%s</ows:Title>\n", cov.Title)
		}
		if cov.Abstract != "" {
			fmt.Fprintf(&b, "      <ows:Abstract>%s</ows:Abstract>\n", cov.Abstract)
		}
		if len(cov.Keywords) > 0 {
			b.WriteString("      <ows:Keywords>")
			for _, kw := range cov.Keywords {
				fmt.Fprintf(&b, "<ows:Keyword>%s</ows:Keyword>", kw)
			}
			b.WriteString("</ows:Keywords>\n")
		}
		if cov.WGS84 != nil {
			fmt.Fprintf(&b, `      <ows:WGS84BoundingBox>
        <ows:LowerCorner>%g %g</ows:LowerCorner>
        <ows:UpperCorner>%g %g</ows:UpperCorner>
      </ows:WGS84BoundingBox>
`, cov.WGS84[0], cov.WGS84[1], cov.WGS84[2], cov.WGS84[3])
		}
		if cov.Native != nil {
			fmt.Fprintf(&b, `      <ows:BoundingBox crs="%s">
        <ows:LowerCorner>%g %g</ows:LowerCorner>
        <ows:UpperCorner>%g %g</ows:UpperCorner>
      </ows:BoundingBox>
`, cov.NativeSRS, cov.Native[0], cov.Native[1], cov.Native[2], cov.Native[3])
		}
		b.WriteString("    </wcs:CoverageSummary>\n")
	}
	b.WriteString(`  </wcs:Contents>
</wcs:Capabilities>
`)
	return b.String()
}

// EnvelopeFixture describes one gml:Envelope in a DescribeCoverage fixture.
type EnvelopeFixture struct {
	SRSName      string
	SRSDimension int
	AxisLabels   string
	LowerCorner  string
	UpperCorner  string
}

// DescribeCoverage renders a WCS 2.0.1 DescribeCoverage document with the
// given envelopes, one CoverageDescription per envelope.
func DescribeCoverage(envelopes ...EnvelopeFixture) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<wcs:CoverageDescriptions xmlns:wcs="http://www.opengis.net/wcs/2.0" xmlns:gml="http://www.opengis.net/gml/3.2">
`)
	for _, env := range envelopes {
		fmt.Fprintf(&b, `  <wcs:CoverageDescription>
    <gml:boundedBy>
      <gml:Envelope srsName="%s" srsDimension="%d" axisLabels="%s">
        <gml:lowerCorner>%s</gml:lowerCorner>
        <gml:upperCorner>%s</gml:upperCorner>
      </gml:Envelope>
    </gml:boundedBy>
  </wcs:CoverageDescription>
`, env.SRSName, env.SRSDimension, env.AxisLabels, env.LowerCorner, env.UpperCorner)
	}
	b.WriteString("</wcs:CoverageDescriptions>\n")
	return b.String()
}

// WCSHandler serves capabilities and describe-coverage documents from one
// endpoint, the way a real server multiplexes on the request parameter.
type WCSHandler struct {
	CapabilitiesXML     string
	DescribeCoverageXML string

	// Status forces a non-200 response for every request when non-zero.
	Status int
}

func (h WCSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Status != 0 {
		w.WriteHeader(h.Status)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	switch r.URL.Query().Get("request") {
	case "DescribeCoverage":
		fmt.Fprint(w, h.DescribeCoverageXML)
	default:
		fmt.Fprint(w, h.CapabilitiesXML)
	}
}
