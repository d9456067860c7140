package publish

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "reports/rs2/1234/rs2_dashboard.html", ObjectKey("/reports/", "rs2", "1234", "rs2_dashboard.html"))
	assert.Equal(t, "scan-records/index.html", ObjectKey("", "scan-records", "", "index.html"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", ContentType("out/index.HTML"))
	assert.Equal(t, "application/json", ContentType("report.json"))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType("top_usb.csv"))
	assert.Equal(t, "application/octet-stream", ContentType("archive.tar"))
}

func TestNew_requiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
