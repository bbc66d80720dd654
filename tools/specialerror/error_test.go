package specialerror

import (
	"context"
	"net/http"
	"testing"

	"CareGene/tools/errs"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestClassifyCodeErrorPassesThrough(t *testing.T) {
	ce := Classify(errs.ErrNotFound.WrapMsg("conversation", "id", "abc"))
	if ce.Code != errs.NotFoundCode {
		t.Fatalf("got code %d, want %d", ce.Code, errs.NotFoundCode)
	}
}

func TestClassifyWrappedCodeError(t *testing.T) {
	err := errors.Wrap(errs.ErrForbidden.Wrap(), "while checking admin")
	ce := Classify(err)
	if ce.Code != errs.ForbiddenCode {
		t.Fatalf("wrapping must not hide the code: got %d", ce.Code)
	}
}

func TestClassifyMalformedID(t *testing.T) {
	_, err := primitive.ObjectIDFromHex("not-a-hex-id")
	ce := Classify(err)
	if ce.Code != errs.MalformedIDCode {
		t.Fatalf("got code %d, want %d", ce.Code, errs.MalformedIDCode)
	}
}

func TestClassifyDeadline(t *testing.T) {
	ce := Classify(context.DeadlineExceeded)
	if ce.Code != errs.TimeoutCode {
		t.Fatalf("got code %d, want %d", ce.Code, errs.TimeoutCode)
	}
}

func TestClassifyUnknownFallsBack(t *testing.T) {
	ce := Classify(errors.New("disk on fire"))
	if ce.Code != errs.UnclassifiedCode {
		t.Fatalf("got code %d, want %d", ce.Code, errs.UnclassifiedCode)
	}
	if ce.Detail == "" {
		t.Fatal("detail must carry the original message")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code int
		want int
	}{
		{errs.ValidationCode, http.StatusBadRequest},
		{errs.MalformedIDCode, http.StatusBadRequest},
		{errs.SelfRequestCode, http.StatusBadRequest},
		{errs.MissingIdentityCode, http.StatusUnauthorized},
		{errs.ForbiddenCode, http.StatusForbidden},
		{errs.NotAParticipantCode, http.StatusForbidden},
		{errs.NotFoundCode, http.StatusNotFound},
		{errs.ConflictCode, http.StatusConflict},
		{errs.InvalidTransitionCode, http.StatusConflict},
		{errs.TimeoutCode, http.StatusGatewayTimeout},
		{errs.UnclassifiedCode, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := errs.HTTPStatus(tc.code); got != tc.want {
			t.Errorf("HTTPStatus(%d) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
