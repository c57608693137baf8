package harvester

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Resource type reported for every coverage.
const resourceTypeLayers = "layers"

// Layer source tag understood by the host platform's map viewer.
const layerPType = "gxp_wcssource"

// Workspace assigned to every remotely harvested layer.
const remoteWorkspace = "remoteWorkspace"

// notProvided is the placeholder used when the remote endpoint omits a
// textual field.
const notProvided = "Not provided"

// BriefRemoteResource is the short descriptor returned by resource listing.
type BriefRemoteResource struct {
	UniqueIdentifier string
	Title            string
	Abstract         string
	ResourceType     string
}

// TemporalExtent is a pair of opaque timestamp strings as reported by the
// remote endpoint. No parsing is attempted.
type TemporalExtent struct {
	Start string
	End   string
}

// RecordContact carries the point-of-contact block of a resource record.
type RecordContact struct {
	Role                      string
	Name                      string
	Organization              string
	Position                  string
	PhoneVoice                string
	AddressDeliveryPoint      string
	AddressCity               string
	AddressAdministrativeArea string
	AddressPostalCode         string
	AddressCountry            string
	AddressEmail              string
}

// RecordIdentification identifies a harvested resource.
type RecordIdentification struct {
	Name           string
	Title          string
	Date           time.Time
	DateType       string
	Originator     RecordContact
	PlaceKeywords  []string
	OtherKeywords  []string
	TopicCategory  string
	License        []string
	Abstract       string
	SpatialExtent  orb.Polygon
	TemporalExtent *TemporalExtent
}

// RecordDistribution lists the distribution endpoints of a resource.
type RecordDistribution struct {
	WCSURL string
}

// RecordDescription is the canonical resource description handed back to
// the host platform for persistence.
type RecordDescription struct {
	UUID             uuid.UUID
	PointOfContact   RecordContact
	Author           RecordContact
	DateStamp        time.Time
	Identification   RecordIdentification
	Distribution     RecordDistribution
	ReferenceSystems []string

	// AdditionalParameters carries the provider specific key/value pairs
	// (store name, workspace, OWS URL, layer type tag).
	AdditionalParameters map[string]string
}

// HarvestedResourceInfo wraps the resource descriptor for the host
// harvesting framework.
type HarvestedResourceInfo struct {
	ResourceDescriptor    RecordDescription
	AdditionalInformation map[string]string
}
