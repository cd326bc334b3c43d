package transcode

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/lumastream/podwire/errors"
	"github.com/lumastream/podwire/pod"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer encoding,
// no indefinite-length items. Same logical pod always produces
// identical bytes, so transcoded output can be compared and hashed.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("transcode: CBOR encoder initialization failed: " + err.Error())
	}
}

// Marshal encodes a decoded pod value as deterministic CBOR.
func Marshal(v *pod.Value) ([]byte, error) {
	plain, err := ToPlain(v)
	if err != nil {
		return nil, err
	}
	out, err := encMode.Marshal(plain)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTooling, errors.KindInvalidData, err, "cbor encode")
	}
	return out, nil
}

// Diagnose renders a decoded pod value in CBOR diagnostic notation
// (RFC 8949 §8), a compact JSON-like text form.
func Diagnose(v *pod.Value) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	out, err := cbor.Diagnose(data)
	if err != nil {
		return "", errors.Wrap(errors.PhaseTooling, errors.KindInvalidData, err, "cbor diagnose")
	}
	return out, nil
}

// ToPlain converts a decoded pod value into plain Go values: scalars,
// []any, and map[string]any. Container metadata (object type and id,
// property keys and flags, choice kinds) is kept in the maps; scalar
// wire-type distinctions like Id versus Int are not, so this is an
// export format, not a round-trip one.
func ToPlain(v *pod.Value) (any, error) {
	if v.IsNone() {
		return nil, nil
	}
	if v.IsRaw() {
		raw, err := v.AsRaw()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type":  uint32(v.Kind()),
			"bytes": raw,
		}, nil
	}

	switch v.Kind() {
	case pod.TypeBool:
		return v.AsBool()
	case pod.TypeId:
		return v.AsId()
	case pod.TypeInt:
		return v.AsInt()
	case pod.TypeLong:
		return v.AsLong()
	case pod.TypeFloat:
		return v.AsFloat()
	case pod.TypeDouble:
		return v.AsDouble()
	case pod.TypeString:
		return v.AsString()
	case pod.TypeBytes:
		return v.AsBytes()
	case pod.TypeBitmap:
		return v.AsBitmap()
	case pod.TypeRectangle:
		r, err := v.AsRectangle()
		if err != nil {
			return nil, err
		}
		return map[string]any{"width": r.Width, "height": r.Height}, nil
	case pod.TypeFraction:
		f, err := v.AsFraction()
		if err != nil {
			return nil, err
		}
		return map[string]any{"num": f.Num, "denom": f.Denom}, nil
	case pod.TypePointer:
		p, err := v.AsPointer()
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": p.Type, "addr": p.Addr}, nil
	case pod.TypeFd:
		return v.AsFd()
	case pod.TypeArray:
		av, err := v.AsArray()
		if err != nil {
			return nil, err
		}
		return plainSlice(av.Values)
	case pod.TypeStruct:
		fields, err := v.AsStruct()
		if err != nil {
			return nil, err
		}
		return plainSlice(fields)
	case pod.TypeObject:
		ov, err := v.AsObject()
		if err != nil {
			return nil, err
		}
		props := make([]any, 0, len(ov.Properties))
		for _, p := range ov.Properties {
			pv, err := ToPlain(p.Value)
			if err != nil {
				return nil, err
			}
			props = append(props, map[string]any{
				"key":   p.Key,
				"flags": p.Flags,
				"value": pv,
			})
		}
		return map[string]any{
			"type":       ov.Type,
			"id":         ov.Id,
			"properties": props,
		}, nil
	case pod.TypeChoice:
		cv, err := v.AsChoice()
		if err != nil {
			return nil, err
		}
		vals, err := plainSlice(cv.Values)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"kind":   cv.Kind.String(),
			"flags":  cv.Flags,
			"values": vals,
		}, nil
	case pod.TypeSequence:
		sv, err := v.AsSequence()
		if err != nil {
			return nil, err
		}
		ctrls := make([]any, 0, len(sv.Controls))
		for _, c := range sv.Controls {
			cval, err := ToPlain(c.Value)
			if err != nil {
				return nil, err
			}
			ctrls = append(ctrls, map[string]any{
				"offset": c.Offset,
				"type":   c.Type,
				"value":  cval,
			})
		}
		return map[string]any{
			"unit":     sv.Unit,
			"controls": ctrls,
		}, nil
	default:
		return nil, errors.InvalidData(errors.PhaseTooling, "value with unexportable type %s", v.Kind())
	}
}

func plainSlice(values []*pod.Value) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		p, err := ToPlain(v)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
