package ranges

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/style"
)

// ErrInvalidDescriptor indicates a range descriptor that cannot be decoded.
var ErrInvalidDescriptor = errors.New("invalid range descriptor")

// Marshal encodes a range as a JSON descriptor:
//
//	{"id":"h1","text":"...","start":{"path":[0,1],"offset":3},
//	 "end":{"path":[0,1],"offset":9},"config":{"fill":"#ff0"}}
//
// Unset style overrides are omitted.
func Marshal(r Range) ([]byte, error) {
	e := encoder{buf: []byte(`{}`)}
	e.set("id", r.ID)
	e.set("text", r.Text)
	e.set("start.path", pathInts(r.Start.Path))
	e.set("start.offset", r.Start.Offset)
	e.set("end.path", pathInts(r.End.Path))
	e.set("end.offset", r.End.Offset)

	c := r.Config
	if c.Fill != "" {
		e.set("config.fill", c.Fill)
	}
	if c.FillOpacity != nil {
		e.set("config.fillOpacity", *c.FillOpacity)
	}
	if c.Stroke != "" {
		e.set("config.stroke", c.Stroke)
	}
	if c.StrokeWidth != nil {
		e.set("config.strokeWidth", *c.StrokeWidth)
	}
	if c.StrokeOpacity != nil {
		e.set("config.strokeOpacity", *c.StrokeOpacity)
	}
	if e.err != nil {
		return nil, fmt.Errorf("encoding range %s: %w", r.ID, e.err)
	}
	return e.buf, nil
}

// MarshalList encodes ranges as a JSON array of descriptors.
func MarshalList(rs []Range) ([]byte, error) {
	buf := []byte(`[]`)
	for _, r := range rs {
		item, err := Marshal(r)
		if err != nil {
			return nil, err
		}
		buf, err = sjson.SetRawBytes(buf, "-1", item)
		if err != nil {
			return nil, fmt.Errorf("encoding range list: %w", err)
		}
	}
	return buf, nil
}

// Unmarshal decodes one JSON descriptor.
func Unmarshal(data []byte) (Range, error) {
	if !gjson.ValidBytes(data) {
		return Range{}, fmt.Errorf("%w: malformed JSON", ErrInvalidDescriptor)
	}
	return parseRange(gjson.ParseBytes(data))
}

// UnmarshalList decodes a JSON array of descriptors.
func UnmarshalList(data []byte) ([]Range, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidDescriptor)
	}
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected an array", ErrInvalidDescriptor)
	}
	items := list.Array()
	out := make([]Range, 0, len(items))
	for i, item := range items {
		r, err := parseRange(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseRange(v gjson.Result) (Range, error) {
	if !v.IsObject() {
		return Range{}, fmt.Errorf("%w: expected an object", ErrInvalidDescriptor)
	}
	id := v.Get("id")
	if id.Type != gjson.String || id.String() == "" {
		return Range{}, fmt.Errorf("%w: missing id", ErrInvalidDescriptor)
	}

	start, err := parseAnchor(v.Get("start"))
	if err != nil {
		return Range{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseAnchor(v.Get("end"))
	if err != nil {
		return Range{}, fmt.Errorf("end: %w", err)
	}

	cfg := parseOverride(v.Get("config"))
	if err := cfg.Validate(); err != nil {
		return Range{}, fmt.Errorf("%w: config: %v", ErrInvalidDescriptor, err)
	}

	return Range{
		ID:     id.String(),
		Text:   v.Get("text").String(),
		Start:  start,
		End:    end,
		Config: cfg,
	}, nil
}

func parseAnchor(v gjson.Result) (Anchor, error) {
	if !v.IsObject() {
		return Anchor{}, fmt.Errorf("%w: missing anchor", ErrInvalidDescriptor)
	}
	p := v.Get("path")
	if !p.IsArray() {
		return Anchor{}, fmt.Errorf("%w: path must be an array", ErrInvalidDescriptor)
	}
	var path dom.NodePath
	for _, idx := range p.Array() {
		if idx.Type != gjson.Number || idx.Int() < 0 {
			return Anchor{}, fmt.Errorf("%w: path index %s", ErrInvalidDescriptor, idx.Raw)
		}
		path = append(path, int(idx.Int()))
	}
	off := v.Get("offset")
	if off.Type != gjson.Number {
		return Anchor{}, fmt.Errorf("%w: missing offset", ErrInvalidDescriptor)
	}
	return Anchor{Path: path, Offset: int(off.Int())}, nil
}

func parseOverride(v gjson.Result) style.Override {
	var o style.Override
	if !v.IsObject() {
		return o
	}
	o.Fill = v.Get("fill").String()
	o.Stroke = v.Get("stroke").String()
	if f := v.Get("fillOpacity"); f.Exists() {
		o.FillOpacity = style.Float(f.Float())
	}
	if f := v.Get("strokeWidth"); f.Exists() {
		o.StrokeWidth = style.Float(f.Float())
	}
	if f := v.Get("strokeOpacity"); f.Exists() {
		o.StrokeOpacity = style.Float(f.Float())
	}
	return o
}

func pathInts(p dom.NodePath) []int {
	if p == nil {
		return []int{}
	}
	return []int(p)
}

// encoder accumulates sjson writes, keeping the first error.
type encoder struct {
	buf []byte
	err error
}

func (e *encoder) set(path string, value any) {
	if e.err != nil {
		return
	}
	e.buf, e.err = sjson.SetBytes(e.buf, path, value)
}
