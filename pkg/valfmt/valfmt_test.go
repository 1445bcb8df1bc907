package valfmt

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/geom"
	"github.com/chazu/selvage/pkg/measure"
	"github.com/chazu/selvage/pkg/pattern"
	"github.com/chazu/selvage/pkg/sketch"
)

const sampleVal = `<?xml version="1.0" encoding="UTF-8"?>
<pattern>
    <!--Pattern created with Valentina-->
    <version>0.7.10</version>
    <unit>cm</unit>
    <author>Ann</author>
    <description>Bodice block</description>
    <notes/>
    <measurements>body.vit</measurements>
    <increments>
        <increment name="#ease" formula="2" description="Ease"/>
    </increments>
    <draw name="front">
        <calculation>
            <line id="5" firstPoint="1" secondPoint="4" typeLine="hair" lineColor="black"/>
            <point type="single" id="1" name="A" x="0" y="0" mx="0.13" my="0.26"/>
            <point type="endLine" id="2" name="B" basePoint="1" angle="0" length="height / 4 + #ease" typeLine="hair" lineColor="black" mx="0.1" my="0.2"/>
            <point type="alongLine" id="3" name="C" firstPoint="1" secondPoint="2" length="10" typeLine="none" lineColor="black" mx="0" my="0"/>
            <point type="normal" id="4" name="D" firstPoint="1" secondPoint="2" angle="0" length="5" typeLine="hair" lineColor="blue" mx="0" my="0"/>
            <arc type="simple" id="6" center="1" radius="5" angle1="0" angle2="90"/>
            <spline type="simpleInteractive" id="7" point1="1" point4="2" angle1="45" angle2="135" length1="3" length2="3" color="black"/>
        </calculation>
        <modeling/>
        <details/>
    </draw>
    <draw name="back">
        <calculation>
            <point type="single" id="10" name="E" x="0" y="0" mx="0" my="0"/>
            <point type="single" id="12" name="G" x="10" y="10" mx="0" my="0"/>
            <point type="single" id="13" name="H" x="0" y="10" mx="0" my="0"/>
            <point type="single" id="14" name="I" x="10" y="0" mx="0" my="0"/>
            <point type="lineIntersect" id="15" name="J" p1Line1="10" p2Line1="12" p1Line2="13" p2Line2="14" mx="0" my="0"/>
            <point type="pointOfIntersection" id="16" name="K" firstPoint="14" secondPoint="13" mx="0" my="0"/>
            <point type="shoulder" id="17" name="L" p1Line="10" p2Line="12" pShoulder="13" length="1"/>
        </calculation>
        <modeling/>
        <details/>
    </draw>
</pattern>
`

const sampleVit = `<?xml version="1.0" encoding="UTF-8"?>
<vit>
    <version>0.3.3</version>
    <unit>cm</unit>
    <body-measurements>
        <m name="height" value="172"/>
        <m name="mystery" value="1"/>
    </body-measurements>
</vit>
`

func decodeSample(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Decode(strings.NewReader(src), Options{Measurements: measure.Values{"height": 172}})
	require.NoError(t, err)
	return doc
}

func assertPoint(t *testing.T, s *sketch.Sketch, id sketch.ID, want geom.Vec2) {
	t.Helper()
	got, ok := s.Point(id)
	require.True(t, ok, "point %s", id)
	assert.InDelta(t, want.X, got.X, 1e-9, "point %s x", id)
	assert.InDelta(t, want.Y, got.Y, 1e-9, "point %s y", id)
}

func TestElementAttributes(t *testing.T) {
	el := NewElement("point", "type", "single", "id", "1")
	el.Set("x", "0")
	el.Set("id", "2")
	el.SetOptional("color", "")

	var names []string
	for _, a := range el.Attrs {
		names = append(names, a.Name.Local)
	}
	assert.Equal(t, []string{"type", "id", "x"}, names)
	v, ok := el.Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	_, ok = el.Attr("color")
	assert.False(t, ok)

	el.Append(NewElement("child"))
	assert.NotNil(t, el.Child("child"))
	assert.Nil(t, el.Child("other"))
}

func TestDefaultDispatcherKinds(t *testing.T) {
	assert.Equal(t, []sketch.Kind{
		sketch.KindSinglePoint,
		sketch.KindEndLinePoint,
		sketch.KindAlongLinePoint,
		sketch.KindNormalPoint,
		sketch.KindPointOfIntersection,
		sketch.KindLineIntersectPoint,
		sketch.KindLine,
		sketch.KindSimpleSpline,
	}, Default.Kinds())
}

func TestNewDispatcherRejectsInconsistentCodecs(t *testing.T) {
	decode := func(*Element, *DecodeContext) (sketch.Operation, error) { return nil, nil }
	encode := func(sketch.Operation, *Element) error { return nil }

	tests := []struct {
		name   string
		codecs []Codec
	}{
		{"no tag", []Codec{{Kind: sketch.KindLine, Decode: decode, Encode: encode}}},
		{"no decode", []Codec{{Tag: "line", Kind: sketch.KindLine, Encode: encode}}},
		{"no encode", []Codec{{Tag: "line", Kind: sketch.KindLine, Decode: decode}}},
		{"duplicate kind", []Codec{
			{Tag: "line", Kind: sketch.KindLine, Decode: decode, Encode: encode},
			{Tag: "segment", Kind: sketch.KindLine, Decode: decode, Encode: encode},
		}},
		{"duplicate tag", []Codec{
			{Tag: "line", Kind: sketch.KindLine, Decode: decode, Encode: encode},
			{Tag: "line", Kind: sketch.KindSimpleSpline, Decode: decode, Encode: encode},
		}},
		{"duplicate type", []Codec{
			{Tag: "point", Type: "single", Kind: sketch.KindSinglePoint, Decode: decode, Encode: encode},
			{Tag: "point", Type: "single", Kind: sketch.KindEndLinePoint, Decode: decode, Encode: encode},
		}},
		{"plain then polymorphic", []Codec{
			{Tag: "point", Kind: sketch.KindSinglePoint, Decode: decode, Encode: encode},
			{Tag: "point", Type: "endLine", Kind: sketch.KindEndLinePoint, Decode: decode, Encode: encode},
		}},
		{"polymorphic then plain", []Codec{
			{Tag: "point", Type: "endLine", Kind: sketch.KindEndLinePoint, Decode: decode, Encode: encode},
			{Tag: "point", Kind: sketch.KindSinglePoint, Decode: decode, Encode: encode},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDispatcher(tt.codecs...)
			assert.ErrorIs(t, err, ErrDispatcherConfig)
			assert.Panics(t, func() { MustDispatcher(tt.codecs...) })
		})
	}
}

func TestFromXMLUnsupported(t *testing.T) {
	tests := []struct {
		el  *Element
		tag string
		typ string
	}{
		{NewElement("arc", "type", "simple", "id", "3"), "arc", "simple"},
		{NewElement("operation", "type", "rotation"), "operation", "rotation"},
		{NewElement("point", "type", "shoulder", "id", "4"), "point", "shoulder"},
		{NewElement("point", "id", "4"), "point", ""},
	}
	for _, tt := range tests {
		_, err := Default.FromXML(tt.el, nil)
		var ue *UnsupportedError
		require.ErrorAs(t, err, &ue)
		assert.ErrorIs(t, err, ErrUnsupportedOperation)
		assert.Equal(t, tt.tag, ue.Tag)
		assert.Equal(t, tt.typ, ue.Type)
		assert.False(t, Default.Supports(tt.el))
	}
}

func TestFromXMLAttributeErrors(t *testing.T) {
	_, err := Default.FromXML(NewElement("line", "id", "1", "firstPoint", "2"), nil)
	assert.ErrorIs(t, err, ErrMissingAttribute)
	assert.Contains(t, err.Error(), "secondPoint")

	_, err = Default.FromXML(NewElement("line", "id", "1", "firstPoint", "x", "secondPoint", "3"), nil)
	assert.ErrorIs(t, err, ErrInvalidAttribute)

	_, err = Default.FromXML(NewElement("point", "type", "single", "id", "0", "x", "1", "y", "1"), nil)
	assert.ErrorIs(t, err, ErrInvalidAttribute)

	_, err = Default.FromXML(NewElement("point", "type", "single", "id", "1", "x", "1", "y", "1", "mx", "wide"), nil)
	assert.ErrorIs(t, err, ErrInvalidAttribute)
}

func TestFromXMLMintsMissingIDs(t *testing.T) {
	el := NewElement("point", "type", "single", "x", "1", "y", "2")

	_, err := Default.FromXML(el, nil)
	assert.ErrorIs(t, err, ErrMissingAttribute)

	ids := sketch.NewIDGenerator(41)
	op, err := Default.FromXML(el, &DecodeContext{IDs: ids})
	require.NoError(t, err)
	assert.Equal(t, sketch.ID(42), op.ID())
}

type unknownOp struct{ sketch.Base }

func (unknownOp) Kind() sketch.Kind    { return sketch.Kind(99) }
func (unknownOp) Inputs() []sketch.ID { return nil }
func (unknownOp) Evaluate([]geom.Primitive[geom.Vec2], sketch.Calculator) (geom.Primitive[geom.Vec2], error) {
	return nil, nil
}

func TestFromOperationUnregistered(t *testing.T) {
	_, err := Default.FromOperation(&unknownOp{Base: sketch.Base{OpID: 3}})
	assert.ErrorIs(t, err, ErrUnregisteredOperation)
}

func TestFromOperationRoundTrip(t *testing.T) {
	ops := []sketch.Operation{
		&sketch.SinglePoint{Base: sketch.Base{OpID: 1}, PointAttrs: sketch.PointAttrs{Name: "A", LabelOffset: geom.Vec2{X: 0.5, Y: -1}}, X: "1", Y: "height / 2"},
		&sketch.EndLinePoint{Base: sketch.Base{OpID: 2}, PointAttrs: sketch.PointAttrs{Name: "B"}, LineStyle: sketch.LineStyle{LineType: "hair", LineColor: "black"}, BasePoint: 1, Angle: "90", Length: "10"},
		&sketch.AlongLinePoint{Base: sketch.Base{OpID: 3}, First: 1, Second: 2, Length: "3"},
		&sketch.NormalPoint{Base: sketch.Base{OpID: 4}, First: 1, Second: 2, Angle: "0", Length: "#ease"},
		&sketch.PointOfIntersection{Base: sketch.Base{OpID: 5}, First: 1, Second: 2},
		&sketch.LineIntersectPoint{Base: sketch.Base{OpID: 6}, P1Line1: 1, P2Line1: 2, P1Line2: 3, P2Line2: 4},
		&sketch.Line{Base: sketch.Base{OpID: 7}, LineStyle: sketch.LineStyle{LineType: "dashLine"}, First: 1, Second: 2},
		&sketch.SimpleSpline{Base: sketch.Base{OpID: 8}, Color: "green", Point1: 1, Point4: 2, Angle1: "10", Length1: "1", Angle2: "20", Length2: "2"},
	}
	for _, op := range ops {
		t.Run(op.Kind().String(), func(t *testing.T) {
			el, err := Default.FromOperation(op)
			require.NoError(t, err)
			back, err := Default.FromXML(el, nil)
			require.NoError(t, err)
			assert.Equal(t, op, back)
		})
	}
}

func TestDecodeSample(t *testing.T) {
	doc := decodeSample(t, sampleVal)

	p := doc.Pattern
	assert.Equal(t, "0.7.10", doc.Version)
	assert.Equal(t, "cm", p.Unit)
	assert.Equal(t, "Ann", p.Author)
	assert.Equal(t, "body.vit", p.Measurements)
	assert.Equal(t, []pattern.Increment{{Name: "#ease", Formula: "2", Description: "Ease"}}, p.Increments())
	assert.Nil(t, doc.Individual)

	front := p.Scope("front")
	require.NotNil(t, front)
	assert.Equal(t, 6, front.Sketch.Len())
	assertPoint(t, front.Sketch, 1, geom.Vec2{})
	assertPoint(t, front.Sketch, 2, geom.Vec2{X: 45})
	assertPoint(t, front.Sketch, 3, geom.Vec2{X: 10})
	assertPoint(t, front.Sketch, 4, geom.Vec2{Y: 5})

	prim, ok := front.Sketch.Primitive(5)
	require.True(t, ok)
	assert.IsType(t, &geom.Segment2D{}, prim)
	prim, ok = front.Sketch.Primitive(7)
	require.True(t, ok)
	assert.IsType(t, &geom.CubicBezier2D{}, prim)

	back := p.Scope("back")
	require.NotNil(t, back)
	assertPoint(t, back.Sketch, 15, geom.Vec2{X: 5, Y: 5})
	assertPoint(t, back.Sketch, 16, geom.Vec2{X: 10, Y: 10})

	require.Len(t, doc.Skipped, 2)
	assert.Equal(t, "arc", doc.Skipped[0].Tag)
	assert.Equal(t, "6", doc.Skipped[0].ID)
	assert.ErrorIs(t, doc.Skipped[0].Err, ErrUnsupportedOperation)
	assert.Equal(t, "shoulder", doc.Skipped[1].Type)
	assert.Equal(t, "back", doc.Skipped[1].Scope)

	assert.Equal(t, sketch.ID(16), doc.IDs.Last())
	assert.Equal(t, sketch.ID(17), doc.IDs.Next())
}

func TestDecodeLogsSkippedElements(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	_, err := Decode(strings.NewReader(sampleVal), Options{Logger: logger, Measurements: measure.Values{"height": 172}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "skipping unsupported element")
	assert.Contains(t, buf.String(), "tag=arc")
}

func TestDecodeDependencyOnSkippedElementFails(t *testing.T) {
	src := strings.Replace(sampleVal,
		`<point type="single" id="10"`,
		`<line id="18" firstPoint="6" secondPoint="1"/>
            <point type="single" id="10"`, 1)
	_, err := Decode(strings.NewReader(src), Options{Measurements: measure.Values{"height": 172}})
	assert.ErrorIs(t, err, sketch.ErrUnresolvedDependency)
	assert.Contains(t, err.Error(), `"back"`)
}

func TestDecodeDuplicateIDAcrossScopes(t *testing.T) {
	src := `<pattern>
    <version>0.7.10</version>
    <unit>cm</unit>
    <draw name="a">
        <calculation>
            <point type="single" id="1" name="A" x="0" y="0"/>
        </calculation>
    </draw>
    <draw name="b">
        <calculation>
            <point type="single" id="1" name="B" x="1" y="1"/>
            <point type="single" id="2" name="C" x="2" y="2"/>
        </calculation>
    </draw>
</pattern>`
	doc := decodeSample(t, src)

	require.Len(t, doc.Skipped, 1)
	assert.Equal(t, "b", doc.Skipped[0].Scope)
	assert.ErrorIs(t, doc.Skipped[0].Err, sketch.ErrDuplicateID)
	assert.Equal(t, 1, doc.Pattern.Scope("b").Sketch.Len())
}

func TestDecodeMintedIDsSkipLaterExplicitIDs(t *testing.T) {
	src := `<pattern>
    <version>0.7.10</version>
    <unit>cm</unit>
    <draw name="a">
        <calculation>
            <point type="single" name="A" x="0" y="0"/>
            <point type="single" id="1" name="B" x="5" y="5"/>
            <line id="2" firstPoint="1" secondPoint="1"/>
        </calculation>
    </draw>
</pattern>`
	doc := decodeSample(t, src)

	assert.Empty(t, doc.Skipped)
	s := doc.Pattern.Scope("a").Sketch
	require.Equal(t, 3, s.Len())
	assertPoint(t, s, 1, geom.Vec2{X: 5, Y: 5})
	assertPoint(t, s, 3, geom.Vec2{X: 0, Y: 0})

	minted := s.Lookup("A")
	require.NotNil(t, minted)
	assert.Equal(t, sketch.ID(3), minted.ID())
	assert.Equal(t, sketch.ID(3), doc.IDs.Last())
	assert.Equal(t, sketch.ID(4), doc.IDs.Next())
}

func TestDecodeFormulaFailure(t *testing.T) {
	_, err := Decode(strings.NewReader(sampleVal), Options{Measurements: measure.Values{}})
	assert.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader("<pattern><version>"), Options{})
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	doc := decodeSample(t, sampleVal)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc.Pattern, nil))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<version>0.7.10</version>")
	assert.Contains(t, out, "<!--"+headerComment+"-->")
	assert.Contains(t, out, `<draw name="front">`)
	assert.NotContains(t, out, "<arc")

	again := decodeSample(t, out)
	assert.Empty(t, again.Skipped)
	assert.Equal(t, doc.Pattern.Increments(), again.Pattern.Increments())
	for _, name := range []string{"front", "back"} {
		assert.Equal(t, doc.Pattern.Scope(name).Sketch.Operations(), again.Pattern.Scope(name).Sketch.Operations(), name)
	}
}

func TestEncodeUnregisteredOperation(t *testing.T) {
	p := pattern.New("cm")
	scope, err := p.AddScope("piece", nil)
	require.NoError(t, err)
	require.NoError(t, scope.Sketch.Add(&unknownOp{Base: sketch.Base{OpID: 1}}))

	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, p, nil), ErrUnregisteredOperation)
}

func TestReadWriteFiles(t *testing.T) {
	dir := t.TempDir()
	valPath := filepath.Join(dir, "bodice.val")
	require.NoError(t, os.WriteFile(valPath, []byte(sampleVal), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.vit"), []byte(sampleVit), 0o644))

	var logs bytes.Buffer
	doc, err := Read(valPath, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)
	require.NotNil(t, doc.Individual)
	assert.Equal(t, filepath.Join(dir, "body.vit"), doc.Individual.Path)
	assert.Contains(t, logs.String(), "unknown measurement")
	assert.Contains(t, logs.String(), "name=mystery")

	v, ok := doc.Variables.Value("#ease")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	out := filepath.Join(dir, "out", "copy.val")
	require.NoError(t, Write(out, doc.Pattern, nil))
	again, err := Read(out, Options{Measurements: measure.Values{"height": 172}})
	require.NoError(t, err)
	assert.Equal(t, doc.Pattern.Scope("front").Sketch.Len(), again.Pattern.Scope("front").Sketch.Len())
}

func TestReadMissingMeasurements(t *testing.T) {
	dir := t.TempDir()
	valPath := filepath.Join(dir, "bodice.val")
	require.NoError(t, os.WriteFile(valPath, []byte(sampleVal), 0o644))

	_, err := Read(valPath, Options{})
	assert.ErrorIs(t, err, measure.ErrMeasurementFileNotFound)

	extra := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(extra, "body.vit"), []byte(sampleVit), 0o644))
	doc, err := Read(valPath, Options{MeasurementDirs: []string{extra}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extra, "body.vit"), doc.Individual.Path)
}
