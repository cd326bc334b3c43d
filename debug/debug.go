package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/lumastream/podwire/builder"
	"github.com/lumastream/podwire/errors"
	"github.com/lumastream/podwire/pod"
)

const (
	step     = 2  // spaces per nesting level
	maxDepth = 128
	maxHex   = 32 // bytes of payload shown for opaque values
)

// Render writes a readable tree of the pod to w, starting at the given
// indentation. Unknown type tags render as hex dumps instead of failing,
// so a partially understood buffer can still be inspected.
func Render(w io.Writer, indent int, table *TypeTable, p pod.Pod) error {
	return renderPod(w, indent, 0, table, p)
}

// Dump renders the pod to a string.
func Dump(table *TypeTable, p pod.Pod) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, 0, table, p); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderValue writes a readable tree of a decoded value. The value is
// encoded to wire form first so both renderers agree on output.
func RenderValue(w io.Writer, indent int, table *TypeTable, v *pod.Value) error {
	b := builder.Acquire()
	defer builder.Release(b)
	if err := b.PutValue(v); err != nil {
		return err
	}
	data, err := b.Finish()
	if err != nil {
		return err
	}
	p, err := pod.FromBytes(data)
	if err != nil {
		return err
	}
	return Render(w, indent, table, p)
}

func line(w io.Writer, indent int, format string, args ...any) error {
	if indent > 0 {
		if _, err := fmt.Fprintf(w, "%*s", indent, ""); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func hexPreview(data []byte) string {
	if len(data) <= maxHex {
		return fmt.Sprintf("% x", data)
	}
	return fmt.Sprintf("% x ...", data[:maxHex])
}

func renderPod(w io.Writer, indent, depth int, table *TypeTable, p pod.Pod) error {
	if depth > maxDepth {
		return errors.MalformedContainer(errors.PhaseTooling, "nesting exceeds %d levels", maxDepth)
	}

	switch p.Type() {
	case pod.TypeNone:
		return line(w, indent, "None")
	case pod.TypeBool:
		v, err := p.GetBool()
		if err != nil {
			return err
		}
		return line(w, indent, "Bool %t", v)
	case pod.TypeId:
		v, err := p.GetId()
		if err != nil {
			return err
		}
		return line(w, indent, "Id %s", table.IdName(v))
	case pod.TypeInt:
		v, err := p.GetInt()
		if err != nil {
			return err
		}
		return line(w, indent, "Int %d", v)
	case pod.TypeLong:
		v, err := p.GetLong()
		if err != nil {
			return err
		}
		return line(w, indent, "Long %d", v)
	case pod.TypeFloat:
		v, err := p.GetFloat()
		if err != nil {
			return err
		}
		return line(w, indent, "Float %g", v)
	case pod.TypeDouble:
		v, err := p.GetDouble()
		if err != nil {
			return err
		}
		return line(w, indent, "Double %g", v)
	case pod.TypeString:
		v, err := p.GetString()
		if err != nil {
			return err
		}
		return line(w, indent, "String %q", v)
	case pod.TypeBytes:
		v, err := p.GetBytes()
		if err != nil {
			return err
		}
		return line(w, indent, "Bytes size %d [%s]", len(v), hexPreview(v))
	case pod.TypeBitmap:
		v, err := p.GetBitmap()
		if err != nil {
			return err
		}
		return line(w, indent, "Bitmap size %d [%s]", len(v), hexPreview(v))
	case pod.TypeRectangle:
		v, err := p.GetRectangle()
		if err != nil {
			return err
		}
		return line(w, indent, "Rectangle %dx%d", v.Width, v.Height)
	case pod.TypeFraction:
		v, err := p.GetFraction()
		if err != nil {
			return err
		}
		return line(w, indent, "Fraction %d/%d", v.Num, v.Denom)
	case pod.TypePointer:
		v, err := p.GetPointer()
		if err != nil {
			return err
		}
		return line(w, indent, "Pointer type %s addr %#x", table.PointerName(v.Type), v.Addr)
	case pod.TypeFd:
		v, err := p.GetFd()
		if err != nil {
			return err
		}
		return line(w, indent, "Fd %d", v)
	case pod.TypeArray:
		return renderArray(w, indent, depth, table, p)
	case pod.TypeChoice:
		return renderChoice(w, indent, depth, table, p)
	case pod.TypeStruct:
		return renderStruct(w, indent, depth, table, p)
	case pod.TypeObject:
		return renderObject(w, indent, depth, table, p)
	case pod.TypeSequence:
		return renderSequence(w, indent, depth, table, p)
	default:
		return line(w, indent, "Unknown type %d size %d [%s]",
			uint32(p.Type()), p.Size(), hexPreview(p.Body()))
	}
}

func renderArray(w io.Writer, indent, depth int, table *TypeTable, p pod.Pod) error {
	ab, err := p.Array()
	if err != nil {
		return err
	}
	if err := line(w, indent, "Array: child.size %d, child.type %s",
		ab.ChildSize, ab.ChildType); err != nil {
		return err
	}
	for i := 0; i < ab.Len(); i++ {
		if err := renderPod(w, indent+step, depth+1, table, ab.ElemPod(i)); err != nil {
			return err
		}
	}
	return nil
}

func renderChoice(w io.Writer, indent, depth int, table *TypeTable, p pod.Pod) error {
	cb, err := p.Choice()
	if err != nil {
		return err
	}
	if err := line(w, indent, "Choice: kind %s, flags %#08x, child.size %d, child.type %s",
		cb.Kind, cb.Flags, cb.ChildSize, cb.ChildType); err != nil {
		return err
	}
	for i := 0; i < cb.Len(); i++ {
		if err := renderPod(w, indent+step, depth+1, table, cb.ElemPod(i)); err != nil {
			return err
		}
	}
	return nil
}

func renderStruct(w io.Writer, indent, depth int, table *TypeTable, p pod.Pod) error {
	fields, err := p.Fields()
	if err != nil {
		return err
	}
	if err := line(w, indent, "Struct: size %d", p.Size()); err != nil {
		return err
	}
	for _, f := range fields {
		if err := renderPod(w, indent+step, depth+1, table, f); err != nil {
			return err
		}
	}
	return nil
}

func renderObject(w io.Writer, indent, depth int, table *TypeTable, p pod.Pod) error {
	objType, err := p.ObjectType()
	if err != nil {
		return err
	}
	objId, err := p.ObjectId()
	if err != nil {
		return err
	}
	props, err := p.Properties()
	if err != nil {
		return err
	}
	if err := line(w, indent, "Object: size %d, type %s, id %d",
		p.Size(), table.ObjectName(objType), objId); err != nil {
		return err
	}
	for _, prop := range props {
		if err := line(w, indent+step, "Prop: key %s, flags %#08x",
			table.KeyName(objType, prop.Key), prop.Flags); err != nil {
			return err
		}
		if err := renderPod(w, indent+2*step, depth+1, table, prop.Value); err != nil {
			return err
		}
	}
	return nil
}

func renderSequence(w io.Writer, indent, depth int, table *TypeTable, p pod.Pod) error {
	unit, err := p.SequenceUnit()
	if err != nil {
		return err
	}
	ctrls, err := p.Controls()
	if err != nil {
		return err
	}
	if err := line(w, indent, "Sequence: size %d, unit %d", p.Size(), unit); err != nil {
		return err
	}
	for _, c := range ctrls {
		if err := line(w, indent+step, "Control: offset %d, type %s",
			c.Offset, table.ControlName(c.Type)); err != nil {
			return err
		}
		if err := renderPod(w, indent+2*step, depth+1, table, c.Value); err != nil {
			return err
		}
	}
	return nil
}
