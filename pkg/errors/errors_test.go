package errors

import (
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestError(t *testing.T) {
	Convey("Given the package level error kinds", t, func() {
		Convey("WithMessagef should not modify the sentinel", func() {
			err := ErrValidation.WithMessagef("Missing field: %s", "comment")

			So(err.Error(), ShouldEqual, "Missing field: comment")
			So(ErrValidation.Message, ShouldEqual, "invalid request")
			So(Is(err, ErrValidation), ShouldBeTrue)
		})

		Convey("A timeout should also be a model invocation error", func() {
			err := fmt.Errorf("calling ollama: %w", ErrModelTimeout.Wrap(fmt.Errorf("deadline")))

			So(Is(err, ErrModelTimeout), ShouldBeTrue)
			So(Is(err, ErrModelInvocation), ShouldBeTrue)
			So(Is(err, ErrUnparsableOutput), ShouldBeFalse)
		})

		Convey("A schema mismatch should also be unparsable output", func() {
			So(Is(ErrSchemaMismatch, ErrUnparsableOutput), ShouldBeTrue)
			So(Is(ErrUnparsableOutput, ErrSchemaMismatch), ShouldBeFalse)
		})
	})
}

func TestStageError(t *testing.T) {
	Convey("Given a stage failure", t, func() {
		err := &StageError{
			Stage: "base_domain_selector",
			Err:   ErrUnparsableOutput.WithMessagef("no answer marker found"),
		}

		Convey("It should name the stage and the kind", func() {
			So(err.Error(), ShouldEqual,
				`stage "base_domain_selector" failed: UnparsableOutput: no answer marker found`,
			)
		})

		Convey("It should unwrap to the underlying kind", func() {
			So(Is(err, ErrUnparsableOutput), ShouldBeTrue)
			So(StatusCode(err), ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestStatusCode(t *testing.T) {
	Convey("Given errors of different kinds", t, func() {
		So(StatusCode(ErrValidation), ShouldEqual, http.StatusBadRequest)
		So(StatusCode(ErrRateLimited), ShouldEqual, http.StatusTooManyRequests)
		So(StatusCode(ErrPersistence), ShouldEqual, http.StatusInternalServerError)
		So(StatusCode(fmt.Errorf("plain")), ShouldEqual, http.StatusInternalServerError)
		So(KindOf(fmt.Errorf("plain")), ShouldEqual, KindModelInvocation)
	})
}
