package app

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestMainHelp(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"wcs-remote-service", "help"}

	var (
		output    bytes.Buffer
		errOutput bytes.Buffer
	)
	err := Run(&output, &errOutput)

	if err != nil {
		t.Error(err)
	}
	if have, want := output.String(), "Available Commands"; !strings.Contains(have, want) {
		t.Errorf("expected output %s not found in output: %s", want, have)
	}
	if errOutput.String() != "" {
		t.Errorf("error output is not empty")
	}
}

func TestMainUnknownCommand(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"wcs-remote-service", "unknown"}

	err := Run(io.Discard, io.Discard)

	if err == nil {
		t.Error("error expected")
	}
}

func TestConfigWrite(t *testing.T) {
	oldFs := appFs
	defer func() { appFs = oldFs }()
	appFs = afero.NewMemMapFs()

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"wcs-remote-service", "config", "--write", "/etc/geonode/wcs-remote-service.toml"}

	err := Run(io.Discard, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	blob, err := afero.ReadFile(appFs, "/etc/geonode/wcs-remote-service.toml")
	if err != nil {
		t.Fatal(err)
	}
	if have := string(blob); !strings.Contains(have, "[wcs]") {
		t.Errorf("written configuration is missing the wcs section: %s", have)
	}
}

func TestVersionCommand(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"wcs-remote-service", "version"}

	var output bytes.Buffer
	if err := Run(&output, io.Discard); err != nil {
		t.Fatal(err)
	}
	if output.String() == "" {
		t.Error("version output is empty")
	}
}
