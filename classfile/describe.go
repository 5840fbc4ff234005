package classfile

import (
	"fmt"
	"io"
	"strconv"
)

// Describe renders the pool entry at index i in the agent's dump notation,
// e.g. "java/lang/Object:Class.<init>()V:NameType : MethodRef".
func (cf *ClassFile) Describe(i uint16) string {
	c, err := cf.Constant(i)
	if err != nil {
		return "Unknown"
	}

	switch c.Tag {
	case TagUtf8:
		return c.Utf8 + ":Utf8"
	case TagInteger:
		return strconv.FormatInt(int64(c.Int), 10) + ":Integer"
	case TagLong:
		return strconv.FormatInt(c.Long, 10) + ":Long"
	case TagFloat:
		return strconv.FormatFloat(float64(c.Float), 'g', -1, 32) + ":Float"
	case TagDouble:
		return strconv.FormatFloat(c.Double, 'g', -1, 64) + ":Double"
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		return cf.utf8OrUnknown(c.First) + ":" + c.Tag.String()
	case TagNameAndType:
		return cf.nameAndType(c)
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
		return cf.describeAs(c.First, TagClass) + "." + cf.describeAs(c.Second, TagNameAndType) + " : " + c.Tag.String()
	case TagMethodHandle:
		return fmt.Sprintf("%d,%s:%s", c.Kind, cf.describeRef(c.Second), c.Tag)
	case TagDynamic, TagInvokeDynamic:
		return fmt.Sprintf("#%d.%s : %s", c.First, cf.describeAs(c.Second, TagNameAndType), c.Tag)
	default:
		return "Unknown"
	}
}

// describeAs only follows references to entries of the expected kind, so a
// malformed pool cannot recurse.
func (cf *ClassFile) describeAs(i uint16, tag Tag) string {
	c, err := cf.Constant(i)
	if err != nil || c.Tag != tag {
		return "?"
	}
	return cf.Describe(i)
}

func (cf *ClassFile) describeRef(i uint16) string {
	c, err := cf.Constant(i)
	if err != nil {
		return "?"
	}
	switch c.Tag {
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
		return cf.Describe(i)
	}
	return "?"
}

func (cf *ClassFile) nameAndType(c Constant) string {
	return cf.utf8OrUnknown(c.First) + cf.utf8OrUnknown(c.Second) + ":NameType"
}

func (cf *ClassFile) utf8OrUnknown(i uint16) string {
	s, err := cf.Utf8(i)
	if err != nil {
		return "?"
	}
	return s
}

// Dump writes a human readable report of cf. size is the length of the
// class file in bytes.
func Dump(w io.Writer, size int64, cf *ClassFile) error {
	p := &printer{w: w}

	p.printf("class file size %d bytes\n", size)
	p.printf("magic number: %X\n", cf.Magic)
	p.printf("minor version: %d\n", cf.MinorVersion)
	p.printf("major version: %d\n", cf.MajorVersion)
	p.printf("constant pool size: %d\n", cf.ConstantPoolSize())
	for i := 1; i < len(cf.ConstantPool); i++ {
		if cf.ConstantPool[i].Tag == 0 {
			continue
		}
		p.printf("const pool entry [%d] = %s\n", i, cf.Describe(uint16(i)))
	}
	p.printf("access flags: %X\n", cf.AccessFlags)

	name, _ := cf.ClassName()
	p.printf("class name: %s\n", name)
	if super, err := cf.SuperClassName(); err == nil && super != "" {
		p.printf("super class: %s\n", super)
	}
	for _, idx := range cf.Interfaces {
		p.printf("interface: %s\n", cf.utf8OrUnknown(cf.classIndex(idx)))
	}
	for _, f := range cf.Fields {
		p.printf("field: %s %s (flags %X)\n", f.Name, f.Descriptor, f.AccessFlags)
	}
	for _, m := range cf.Methods {
		p.printf("method: %s%s (flags %X)\n", m.Name, m.Descriptor, m.AccessFlags)
	}
	p.printf("class signature: %s\n", cf.Signature())

	return p.err
}

func (cf *ClassFile) classIndex(i uint16) uint16 {
	c, err := cf.Constant(i)
	if err != nil || c.Tag != TagClass {
		return 0
	}
	return c.First
}

// printer keeps the first write error so Dump can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
