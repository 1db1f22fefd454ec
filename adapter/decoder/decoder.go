// Package decoder hydrates model instances from document payloads.
package decoder

import (
	"fmt"

	goreflect "github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"

	"github.com/firemodel-go/firemodel/adapter/data"
)

// Decoder converts document payloads into user model values and back to an
// empty state.
type Decoder struct{}

// NewDecoder returns a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode resets target and fills it from the document payload. A nil
// payload leaves the target in its zero state. target must be a non-nil
// pointer.
func (d *Decoder) Decode(src data.M, target any) error {
	if err := d.Reset(target); err != nil {
		return err
	}
	if src == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: data.TagName,
		Squash:  true,
		Result:  target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}

// Reset zeroes the value target points to.
func (d *Decoder) Reset(target any) error {
	if target == nil {
		return fmt.Errorf("target interface is nil")
	}
	r := goreflect.ValueOf(target)
	if r.Kind() != goreflect.Ptr || r.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	elem := r.Elem()
	if !elem.CanSet() {
		return fmt.Errorf("target %T cannot be reset", target)
	}
	elem.Set(goreflect.Zero(elem.Type()))
	return nil
}
