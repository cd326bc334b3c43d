package builder

import (
	"github.com/lumastream/podwire/errors"
	"github.com/lumastream/podwire/pod"
)

// scalarBodySize returns the fixed body size of a scalar type, used to
// preserve the child descriptor of arrays and choices that carry no
// elements. Variable-size and container types return 0.
func scalarBodySize(t pod.Type) uint32 {
	switch t {
	case pod.TypeBool, pod.TypeId, pod.TypeInt, pod.TypeFloat:
		return 4
	case pod.TypeLong, pod.TypeDouble, pod.TypeFd,
		pod.TypeRectangle, pod.TypeFraction:
		return 8
	case pod.TypePointer:
		return 16
	default:
		return 0
	}
}

// PutValue encodes a decoded value tree back to wire form. Together
// with pod.FromPod this round-trips any well-formed pod, including
// subtrees with unknown type tags.
func (b *Builder) PutValue(v *pod.Value) error {
	if v.IsNone() {
		return b.None()
	}
	if v.IsRaw() {
		raw, err := v.AsRaw()
		if err != nil {
			return err
		}
		p, err := pod.FromBytes(raw)
		if err != nil {
			return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "raw value")
		}
		return b.Primitive(p)
	}

	switch v.Kind() {
	case pod.TypeBool:
		w, err := v.AsBool()
		if err != nil {
			return err
		}
		return b.Bool(w)
	case pod.TypeId:
		w, err := v.AsId()
		if err != nil {
			return err
		}
		return b.Id(w)
	case pod.TypeInt:
		w, err := v.AsInt()
		if err != nil {
			return err
		}
		return b.Int(w)
	case pod.TypeLong:
		w, err := v.AsLong()
		if err != nil {
			return err
		}
		return b.Long(w)
	case pod.TypeFloat:
		w, err := v.AsFloat()
		if err != nil {
			return err
		}
		return b.Float(w)
	case pod.TypeDouble:
		w, err := v.AsDouble()
		if err != nil {
			return err
		}
		return b.Double(w)
	case pod.TypeString:
		w, err := v.AsString()
		if err != nil {
			return err
		}
		return b.String(w)
	case pod.TypeBytes:
		w, err := v.AsBytes()
		if err != nil {
			return err
		}
		return b.Bytes(w)
	case pod.TypeBitmap:
		w, err := v.AsBitmap()
		if err != nil {
			return err
		}
		return b.Bitmap(w)
	case pod.TypeRectangle:
		w, err := v.AsRectangle()
		if err != nil {
			return err
		}
		return b.Rectangle(w.Width, w.Height)
	case pod.TypeFraction:
		w, err := v.AsFraction()
		if err != nil {
			return err
		}
		return b.Fraction(w.Num, w.Denom)
	case pod.TypePointer:
		w, err := v.AsPointer()
		if err != nil {
			return err
		}
		return b.Pointer(w.Type, w.Addr)
	case pod.TypeFd:
		w, err := v.AsFd()
		if err != nil {
			return err
		}
		return b.Fd(w)
	case pod.TypeArray:
		av, err := v.AsArray()
		if err != nil {
			return err
		}
		return b.putArray(av)
	case pod.TypeStruct:
		fields, err := v.AsStruct()
		if err != nil {
			return err
		}
		return b.putStruct(fields)
	case pod.TypeObject:
		ov, err := v.AsObject()
		if err != nil {
			return err
		}
		return b.putObject(ov)
	case pod.TypeChoice:
		cv, err := v.AsChoice()
		if err != nil {
			return err
		}
		return b.putChoice(cv)
	case pod.TypeSequence:
		sv, err := v.AsSequence()
		if err != nil {
			return err
		}
		return b.putSequence(sv)
	default:
		return errors.InvalidData(errors.PhaseEncode, "value with unencodable type %s", v.Kind())
	}
}

func (b *Builder) putArray(av *pod.ArrayValue) error {
	f, err := b.PushArray()
	if err != nil {
		return err
	}
	if err := b.putPacked(av.ChildType, av.Values); err != nil {
		return err
	}
	return b.Pop(f)
}

func (b *Builder) putChoice(cv *pod.ChoiceValue) error {
	f, err := b.PushChoice(cv.Kind, cv.Flags)
	if err != nil {
		return err
	}
	if err := b.putPacked(cv.ChildType, cv.Values); err != nil {
		return err
	}
	return b.Pop(f)
}

// putPacked writes the elements of an array or choice. An empty packed
// container with a known child type keeps it in the descriptor instead
// of degrading to None.
func (b *Builder) putPacked(childType pod.Type, values []*pod.Value) error {
	if len(values) == 0 {
		if childType == pod.TypeNone || childType == 0 {
			return nil
		}
		return b.Child(scalarBodySize(childType), childType)
	}
	for _, v := range values {
		if err := b.PutValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) putStruct(fields []*pod.Value) error {
	f, err := b.PushStruct()
	if err != nil {
		return err
	}
	for _, field := range fields {
		if err := b.PutValue(field); err != nil {
			return err
		}
	}
	return b.Pop(f)
}

func (b *Builder) putObject(ov *pod.ObjectValue) error {
	f, err := b.PushObject(ov.Type, ov.Id)
	if err != nil {
		return err
	}
	for _, p := range ov.Properties {
		if err := b.Prop(p.Key, p.Flags); err != nil {
			return err
		}
		if err := b.PutValue(p.Value); err != nil {
			return err
		}
	}
	return b.Pop(f)
}

func (b *Builder) putSequence(sv *pod.SequenceValue) error {
	f, err := b.PushSequence(sv.Unit)
	if err != nil {
		return err
	}
	for _, c := range sv.Controls {
		if _, err := b.Control(c.Offset, c.Type); err != nil {
			return err
		}
		if err := b.PutValue(c.Value); err != nil {
			return err
		}
	}
	return b.Pop(f)
}
