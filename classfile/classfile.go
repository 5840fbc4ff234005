package classfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	ErrBadMagic  = errors.New("not a class file")
	ErrTruncated = errors.New("truncated class file")
)

type reader struct {
	r   io.Reader
	buf [8]byte
}

func (r *reader) read(n int) ([]byte, error) {
	b := r.buf[:n]
	if _, err := io.ReadFull(r.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return b, nil
}

func (r *reader) u1() (uint8, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u2() (uint16, error) {
	b, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u4() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u8() (uint64, error) {
	b, err := r.read(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return b, nil
}

func (r *reader) skip(n int64) error {
	copied, err := io.CopyN(io.Discard, r.r, n)
	if copied < n {
		return ErrTruncated
	}
	return err
}

// ParseFile parses the class file at path.
func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cf, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cf, nil
}

// ParseBytes parses an in-memory class file.
func ParseBytes(data []byte) (*ClassFile, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a complete class file from r.
func Parse(in io.Reader) (*ClassFile, error) {
	r := &reader{r: in}
	cf := &ClassFile{}

	var err error
	if cf.Magic, err = r.u4(); err != nil {
		return nil, err
	}
	if cf.Magic != Magic {
		return nil, fmt.Errorf("%w: magic number %X", ErrBadMagic, cf.Magic)
	}
	if cf.MinorVersion, err = r.u2(); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = r.u2(); err != nil {
		return nil, err
	}

	if err := cf.readConstantPool(r); err != nil {
		return nil, err
	}

	if cf.AccessFlags, err = r.u2(); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = r.u2(); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = r.u2(); err != nil {
		return nil, err
	}
	if _, err := cf.ClassName(); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}

	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	cf.Interfaces = make([]uint16, 0, count)
	for i := 0; i < int(count); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		cf.Interfaces = append(cf.Interfaces, idx)
	}

	if cf.Fields, err = cf.readMembers(r); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if cf.Methods, err = cf.readMembers(r); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}
	if cf.Attributes, err = cf.readAttributes(r); err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}

	return cf, nil
}

func (cf *ClassFile) readConstantPool(r *reader) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("invalid constant pool count 0")
	}

	cf.ConstantPool = make([]Constant, count)
	for i := 1; i < int(count); i++ {
		c, err := readConstant(r)
		if err != nil {
			return fmt.Errorf("constant pool entry %d: %w", i, err)
		}
		cf.ConstantPool[i] = c

		// Long and Double take two slots
		if c.Tag == TagLong || c.Tag == TagDouble {
			i++
		}
	}
	return nil
}

func readConstant(r *reader) (Constant, error) {
	tag, err := r.u1()
	if err != nil {
		return Constant{}, err
	}

	c := Constant{Tag: Tag(tag)}
	switch c.Tag {
	case TagUtf8:
		n, err := r.u2()
		if err != nil {
			return c, err
		}
		b, err := r.bytes(int(n))
		if err != nil {
			return c, err
		}
		c.Utf8 = string(b)
	case TagInteger:
		v, err := r.u4()
		if err != nil {
			return c, err
		}
		c.Int = int32(v)
	case TagFloat:
		v, err := r.u4()
		if err != nil {
			return c, err
		}
		c.Float = math.Float32frombits(v)
	case TagLong:
		v, err := r.u8()
		if err != nil {
			return c, err
		}
		c.Long = int64(v)
	case TagDouble:
		v, err := r.u8()
		if err != nil {
			return c, err
		}
		c.Double = math.Float64frombits(v)
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		if c.First, err = r.u2(); err != nil {
			return c, err
		}
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef, TagNameAndType, TagDynamic, TagInvokeDynamic:
		if c.First, err = r.u2(); err != nil {
			return c, err
		}
		if c.Second, err = r.u2(); err != nil {
			return c, err
		}
	case TagMethodHandle:
		if c.Kind, err = r.u1(); err != nil {
			return c, err
		}
		if c.Second, err = r.u2(); err != nil {
			return c, err
		}
	default:
		return c, fmt.Errorf("unknown constant pool entry tag: %d", tag)
	}
	return c, nil
}

func (cf *ClassFile) readMembers(r *reader) ([]Member, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, count)
	for i := 0; i < int(count); i++ {
		var m Member
		if m.AccessFlags, err = r.u2(); err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		if m.Name, err = cf.Utf8(nameIdx); err != nil {
			return nil, err
		}
		if m.Descriptor, err = cf.Utf8(descIdx); err != nil {
			return nil, err
		}
		if m.Attributes, err = cf.readAttributes(r); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (cf *ClassFile) readAttributes(r *reader) ([]Attribute, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		name, err := cf.Utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		if err := r.skip(int64(length)); err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Name: name, Length: length})
	}
	return attrs, nil
}

// Constant returns the pool entry at the JVM index i.
func (cf *ClassFile) Constant(i uint16) (Constant, error) {
	if i == 0 || int(i) >= len(cf.ConstantPool) || cf.ConstantPool[i].Tag == 0 {
		return Constant{}, fmt.Errorf("invalid constant pool index %d", i)
	}
	return cf.ConstantPool[i], nil
}

// Utf8 returns the string stored in the Utf8 entry at index i.
func (cf *ClassFile) Utf8(i uint16) (string, error) {
	c, err := cf.Constant(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagUtf8 {
		return "", fmt.Errorf("constant pool entry %d is %s, not Utf8", i, c.Tag)
	}
	return c.Utf8, nil
}

func (cf *ClassFile) classNameAt(i uint16) (string, error) {
	c, err := cf.Constant(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagClass {
		return "", fmt.Errorf("constant pool entry %d is %s, not Class", i, c.Tag)
	}
	return cf.Utf8(c.First)
}

// ClassName returns the internal name of the class, e.g. java/lang/String.
func (cf *ClassFile) ClassName() (string, error) {
	return cf.classNameAt(cf.ThisClass)
}

// SuperClassName returns the internal name of the superclass, or an empty
// string for java/lang/Object itself.
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.classNameAt(cf.SuperClass)
}

// Signature returns the JNI type signature of the class, e.g. LService;
func (cf *ClassFile) Signature() string {
	name, err := cf.ClassName()
	if err != nil {
		return ""
	}
	return "L" + name + ";"
}

// ConstantPoolSize is the number of usable pool slots, as the dump reports it.
func (cf *ClassFile) ConstantPoolSize() int {
	if len(cf.ConstantPool) == 0 {
		return 0
	}
	return len(cf.ConstantPool) - 1
}
