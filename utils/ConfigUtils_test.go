package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type storageSection struct {
	Url      string
	Password string `sensitive:"true"`
	Token    string `sensitive:"true"`
}

type testConfig struct {
	Storage  storageSection
	Limits   *struct{ MaxRows int }
	Origins  []string
	internal string
}

func TestConfigLines(t *testing.T) {
	cfg := testConfig{
		Storage:  storageSection{Url: "minio:9000", Password: "secret"},
		Origins:  []string{"a", "b"},
		internal: "hidden",
	}
	assert.Equal(t, []string{
		"storage.url=minio:9000",
		"storage.password=*****",
		"storage.token=",
		"limits=<nil>",
		"origins=[a b]",
	}, ConfigLines(&cfg))

	cfg.Limits = &struct{ MaxRows int }{MaxRows: 10}
	assert.Contains(t, ConfigLines(cfg), "limits.maxRows=10")
}
