package harvester

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ConfigSchema is the JSON schema declaring the harvester-type-specific
// configuration options accepted by this worker. The host platform
// validates operator input against it before persisting the harvester
// record.
const ConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://geonode.org/harvesting/wcs-harvester.schema.json",
  "title": "OGC WCS harvester config",
  "description": "A jsonschema for validating configuration options for GeoNode's remote OGC WCS harvester",
  "type": "object",
  "properties": {
    "dataset_title_filter": {
      "type": "string"
    }
  },
  "additionalProperties": false
}`

// Config is the decoded harvester-type-specific configuration.
//
// DatasetTitleFilter is accepted and validated but not applied to resource
// listing yet; the behaviour matches the declared schema, not a filtering
// implementation.
type Config struct {
	DatasetTitleFilter string `mapstructure:"dataset_title_filter"`
}

// ValidateConfig checks a configuration map against ConfigSchema.
func ValidateConfig(cfg map[string]interface{}) error {
	if cfg == nil {
		return nil
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(ConfigSchema),
		gojsonschema.NewGoLoader(cfg),
	)
	if err != nil {
		return errors.Wrap(err, "validating harvester configuration")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			details = append(details, issue.String())
		}
		return errors.Errorf("invalid harvester configuration: %s", strings.Join(details, "; "))
	}
	return nil
}

// ConfigFromMap validates and decodes a configuration map.
func ConfigFromMap(cfg map[string]interface{}) (Config, error) {
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	decoded := Config{}
	if err := mapstructure.Decode(cfg, &decoded); err != nil {
		return Config{}, errors.Wrap(err, "decoding harvester configuration")
	}
	return decoded, nil
}
