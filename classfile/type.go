package classfile

// Magic is the first word of every JVM class file.
const Magic uint32 = 0xCAFEBABE

// Tag identifies the kind of a constant pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldRef           Tag = 9
	TagMethodRef          Tag = 10
	TagInterfaceMethodRef Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

var tagNames = map[Tag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldRef:           "FieldRef",
	TagMethodRef:          "MethodRef",
	TagInterfaceMethodRef: "InterfaceMethodRef",
	TagNameAndType:        "NameType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Constant is one constant pool entry. Which fields are set depends on Tag:
//
//	Utf8                          Utf8
//	Integer, Float, Long, Double  Int, Float, Long, Double
//	Class, String, MethodType,
//	Module, Package               First (Utf8 index)
//	FieldRef, MethodRef,
//	InterfaceMethodRef            First (Class), Second (NameAndType)
//	NameAndType                   First (name), Second (descriptor)
//	MethodHandle                  Kind, Second (reference)
//	Dynamic, InvokeDynamic        First (bootstrap method), Second (NameAndType)
//
// The slot following a Long or Double is unusable and has a zero Tag.
type Constant struct {
	Tag    Tag
	Utf8   string
	Int    int32
	Float  float32
	Long   int64
	Double float64
	First  uint16
	Second uint16
	Kind   uint8
}

type Attribute struct {
	Name   string
	Length uint32
}

// Member is a field or a method.
type Member struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

type ClassFile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	// ConstantPool is indexed like the JVM pool: entry 0 is unused.
	ConstantPool []Constant
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}
