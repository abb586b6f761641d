package extract

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/analogy/pkg/errors"
)

func TestExtract(t *testing.T) {
	Convey("Given an extractor with the default marker", t, func() {
		extractor := NewExtractor()

		Convey("When the text has no answer marker", func() {
			out, err := extractor.Extract(`{"base_domain": "plumbing"}`)

			Convey("It should fail instead of returning an empty map", func() {
				So(out, ShouldBeNil)
				So(errors.Is(err, errors.ErrUnparsableOutput), ShouldBeTrue)
			})
		})

		Convey("When the text is empty", func() {
			out, err := extractor.Extract("")

			So(out, ShouldBeNil)
			So(err, ShouldNotBeNil)
		})

		Convey("When a well-formed block follows leading commentary", func() {
			text := "Thought: I now know the answer.\n" +
				"The heart is a pump, so plumbing fits.\n" +
				"## Final Answer:\n" +
				"```json\n{\"base_domain\": \"plumbing {pipes}\", \"score\": 0.8}\n```\n" +
				"Let me know if you need more."

			out, err := extractor.Extract(text)

			Convey("It should return the parsed structure", func() {
				So(err, ShouldBeNil)
				So(out["base_domain"], ShouldEqual, "plumbing {pipes}")
				So(out["score"], ShouldEqual, 0.8)
			})
		})

		Convey("When the marker varies in case and heading depth", func() {
			out, err := extractor.Extract("### final answer: {\"a\": [1, 2]}")

			So(err, ShouldBeNil)
			So(out["a"], ShouldResemble, []any{float64(1), float64(2)})
		})

		Convey("When the block after the marker is malformed", func() {
			out, err := extractor.Extract("## Final Answer:\n{base_domain: plumbing}")

			Convey("It should fail", func() {
				So(out, ShouldBeNil)
				So(errors.Is(err, errors.ErrUnparsableOutput), ShouldBeTrue)
			})
		})

		Convey("When the marker is followed by nothing structured", func() {
			_, err := extractor.Extract("## Final Answer: plumbing")

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no structured block")
		})

		Convey("When several candidate blocks follow the marker", func() {
			text := "## Final Answer:\n{oops}\n{\"first\": true}\n{\"second\": true}"
			out, err := extractor.Extract(text)

			Convey("It should take the first well-formed one", func() {
				So(err, ShouldBeNil)
				So(out["first"], ShouldEqual, true)
				So(out, ShouldNotContainKey, "second")
			})
		})

		Convey("When commentary opens a brace it never closes", func() {
			text := "## Final Answer: I map it as { target -> base, then:\n{\"base_domain\": \"kitchen\"}"
			out, err := extractor.Extract(text)

			Convey("It should still find the well-formed block after it", func() {
				So(err, ShouldBeNil)
				So(out["base_domain"], ShouldEqual, "kitchen")
			})
		})

		Convey("When a malformed wrapper holds a well-formed object", func() {
			out, err := extractor.Extract("## Final Answer: {answer => {\"base_domain\": \"orchestra\"}}")

			So(err, ShouldBeNil)
			So(out["base_domain"], ShouldEqual, "orchestra")
		})

		Convey("When the instructions are echoed before the real answer", func() {
			text := "## Final Answer:\nnot yet\n## Final Answer:\n{\"base_domain\": \"traffic\"}"
			out, err := extractor.Extract(text)

			So(err, ShouldBeNil)
			So(out["base_domain"], ShouldEqual, "traffic")
		})

		Convey("When the JSON is a list rather than an object", func() {
			_, err := extractor.Extract("## Final Answer: [1, 2, 3]")

			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given an extractor with a custom marker", t, func() {
		extractor := NewExtractor(WithMarker(`ANSWER>>`))

		_, err := extractor.Extract("## Final Answer: {\"a\": 1}")
		So(err, ShouldNotBeNil)

		out, err := extractor.Extract("ANSWER>> {\"a\": 1}")
		So(err, ShouldBeNil)
		So(out["a"], ShouldEqual, 1.0)
	})
}

func TestBlocks(t *testing.T) {
	Convey("Given text with nested and quoted braces", t, func() {
		blocks := Blocks(`x {"a": {"b": "}"}} y {"c": "\"{"} z {unterminated`)

		So(blocks, ShouldResemble, []string{
			`{"a": {"b": "}"}}`,
			`{"c": "\"{"}`,
		})
	})

	Convey("Given an unclosed brace before a balanced object", t, func() {
		blocks := Blocks(`note { a -> b {"x": 1} end`)

		So(blocks, ShouldResemble, []string{`{"x": 1}`})
	})
}

func TestNewExtractorWithMarker(t *testing.T) {
	Convey("Given a configured marker pattern", t, func() {
		Convey("When it does not compile", func() {
			_, err := NewExtractorWithMarker(`final(answer`)
			So(err, ShouldNotBeNil)
		})

		Convey("When it is empty the default marker is used", func() {
			extractor, err := NewExtractorWithMarker("")
			So(err, ShouldBeNil)

			out, err := extractor.Extract(`## Final Answer: {"a": "b"}`)
			So(err, ShouldBeNil)
			So(out["a"], ShouldEqual, "b")
		})
	})
}
