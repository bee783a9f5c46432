package segcompare

import (
	"github.com/pkg/errors"
	"go.viam.com/test"
	"testing"
)

func TestFilterByScore(t *testing.T) {
	in := []Instance{
		{ClassID: 1, Score: 0.95},
		{ClassID: 2, Score: 0.70},
		{ClassID: 3, Score: 0.30},
		{ClassID: 4, Score: 0.71},
	}
	kept := FilterByScore(in, 0.7)
	test.That(t, len(kept), test.ShouldEqual, 2)
	test.That(t, kept[0].ClassID, test.ShouldEqual, 1)
	test.That(t, kept[1].ClassID, test.ShouldEqual, 4)

	test.That(t, len(FilterByScore(nil, 0.5)), test.ShouldEqual, 0)
}

func TestLabelMap(t *testing.T) {
	m := NewLabelMap(4, 2)
	test.That(t, m.Foreground(), test.ShouldEqual, 0.0)
	m.Set(1, 1, 15)
	m.Set(3, 0, 7)
	test.That(t, m.At(1, 1), test.ShouldEqual, 15)
	test.That(t, m.At(0, 0), test.ShouldEqual, 0)
	test.That(t, m.Foreground(), test.ShouldEqual, 0.25)
}

func TestInferenceError(t *testing.T) {
	test.That(t, InferenceError(nil), test.ShouldBeNil)

	cause := errors.New("session closed")
	err := InferenceError(cause)
	test.That(t, errors.Is(err, ErrModelInference), test.ShouldBeTrue)
	test.That(t, errors.Is(err, cause), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeFalse)
}
