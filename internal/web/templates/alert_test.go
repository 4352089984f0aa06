package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("Admin only", "Ask an administrator", "AUTH002").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Admin only", "Ask an administrator", `data-code="AUTH002"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestErrorAlert_EscapesMessage(t *testing.T) {
	var buf bytes.Buffer
	ErrorAlert("<script>x</script>", "", "ERR000").Render(context.Background(), &buf)
	if strings.Contains(buf.String(), "<script>") {
		t.Errorf("message was not escaped: %s", buf.String())
	}
	if strings.Contains(buf.String(), "alert-action") {
		t.Error("empty action should not render")
	}
}
