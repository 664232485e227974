package classfile

// 常量池标签
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// 访问标志
const (
	AccPublic    = 0x0001
	AccFinal     = 0x0010
	AccSuper     = 0x0020
	AccInterface = 0x0200
	AccAbstract  = 0x0400
	AccSynthetic = 0x1000
	AccEnum      = 0x4000
)

// ClassDetails 类文件结构摘要，名称保留 JVM 内部形式（如 com/example/Foo）
type ClassDetails struct {
	ClassName      string       `json:"class_name"`
	SuperclassName string       `json:"superclass_name"` // java/lang/Object 自身为空
	Interfaces     []string     `json:"interfaces"`
	Fields         []MemberInfo `json:"fields"`
	Methods        []MemberInfo `json:"methods"`
	Strings        []string     `json:"strings,omitempty"` // 去重后的常量池 UTF-8 字面量

	MinorVersion uint16 `json:"minor_version"`
	MajorVersion uint16 `json:"major_version"`
	AccessFlags  uint16 `json:"access_flags"`
}

// MemberInfo 字段或方法
type MemberInfo struct {
	Name        string `json:"name"`
	Descriptor  string `json:"descriptor"`
	AccessFlags uint16 `json:"access_flags"`
}

// IsInitializer 是否为编译器生成的构造器/静态初始化器
func (m MemberInfo) IsInitializer() bool {
	return m.Name == "<init>" || m.Name == "<clinit>"
}

// SimpleName 去掉包路径后的类名
func SimpleName(internalName string) string {
	for i := len(internalName) - 1; i >= 0; i-- {
		if internalName[i] == '/' {
			return internalName[i+1:]
		}
	}
	return internalName
}
