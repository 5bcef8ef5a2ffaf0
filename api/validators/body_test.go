package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
)

type statusBody struct {
	OrderID int64  `json:"orderId" validate:"required,gt=0"`
	Status  string `json:"status" validate:"required,oneof=ready complete"`
}

func decode(t *testing.T, body string) (statusBody, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	var dest statusBody
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	got, err := decode(t, `{"orderId":12,"status":"ready"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderID != 12 || got.Status != "ready" {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	_, err := decode(t, `{"orderId":12,"status":"ready"} {"orderId":13,"status":"complete"}`)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	padding := strings.Repeat(" ", maxBodyBytes)
	_, err := decode(t, `{"orderId":12,`+padding+`"status":"ready"}`)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	if msg := pkgerrors.As(err).Message(); msg != "request body too large" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	_, err := decode(t, `{"orderId":12,"status":"ready","extra":true}`)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldMessages(t *testing.T) {
	_, err := decode(t, `{"orderId":0,"status":"shipped"}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", typed.Details())
	}
	if details["orderId"] != "is required" {
		t.Fatalf("unexpected orderId message %q", details["orderId"])
	}
	if details["status"] != "must be one of [ready complete]" {
		t.Fatalf("unexpected status message %q", details["status"])
	}
}

func TestCleanField(t *testing.T) {
	got, err := CleanField("requestReferenceNumber", "  ref-1\n ", 64)
	if err != nil || got != "ref-1" {
		t.Fatalf("unexpected clean result %q (%v)", got, err)
	}
	if got, err := CleanField("requestReferenceNumber", " ref ", 0); err != nil || got != "ref" {
		t.Fatalf("unexpected clean result %q (%v)", got, err)
	}

	_, err = CleanField("requestReferenceNumber", "abcdef", 3)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := pkgerrors.As(err).Details().(map[string]any)
	if details["requestReferenceNumber"] != "must be at most 3 characters" {
		t.Fatalf("unexpected details %v", details)
	}
}
