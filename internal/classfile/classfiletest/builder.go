// Package classfiletest 在内存中拼装最小但合法的类文件，供各包测试使用
package classfiletest

import (
	"bytes"
	"encoding/binary"
)

type member struct {
	name, desc uint16
}

// Builder 类文件构造器
type Builder struct {
	pool      bytes.Buffer
	poolCount uint16
	utf8s     map[string]uint16
	classes   map[string]uint16

	thisClass  uint16
	superClass uint16
	interfaces []uint16
	fields     []member
	methods    []member
	codeName   uint16
	sourceName uint16
	sourceFile uint16
}

// NewBuilder 创建构造器，superName 为空时 super_class 写 0
func NewBuilder(className, superName string) *Builder {
	b := &Builder{
		poolCount: 1,
		utf8s:     make(map[string]uint16),
		classes:   make(map[string]uint16),
	}
	b.thisClass = b.Class(className)
	if superName != "" {
		b.superClass = b.Class(superName)
	}
	b.codeName = b.UTF8("Code")
	b.sourceName = b.UTF8("SourceFile")
	b.sourceFile = b.UTF8("Generated.java")
	return b
}

// UTF8 添加（或复用）一个 CONSTANT_Utf8，按标准 UTF-8 写入
func (b *Builder) UTF8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	return b.RawUTF8([]byte(s))
}

// RawUTF8 原样写入 UTF-8 字节，不去重，可用于构造 modified UTF-8
func (b *Builder) RawUTF8(raw []byte) uint16 {
	b.pool.WriteByte(1)
	_ = binary.Write(&b.pool, binary.BigEndian, uint16(len(raw)))
	b.pool.Write(raw)
	idx := b.poolCount
	b.poolCount++
	if _, ok := b.utf8s[string(raw)]; !ok {
		b.utf8s[string(raw)] = idx
	}
	return idx
}

// Class 添加 CONSTANT_Class
func (b *Builder) Class(name string) uint16 {
	if idx, ok := b.classes[name]; ok {
		return idx
	}
	nameIdx := b.UTF8(name)
	b.pool.WriteByte(7)
	_ = binary.Write(&b.pool, binary.BigEndian, nameIdx)
	idx := b.poolCount
	b.poolCount++
	b.classes[name] = idx
	return idx
}

// AddString 添加字符串字面量 (CONSTANT_String -> CONSTANT_Utf8)
func (b *Builder) AddString(s string) *Builder {
	utf := b.UTF8(s)
	b.pool.WriteByte(8)
	_ = binary.Write(&b.pool, binary.BigEndian, utf)
	b.poolCount++
	return b
}

// AddLong 添加占两个槽位的 CONSTANT_Long
func (b *Builder) AddLong(v int64) *Builder {
	b.pool.WriteByte(5)
	_ = binary.Write(&b.pool, binary.BigEndian, v)
	b.poolCount += 2
	return b
}

// AddMethodRef 添加 CONSTANT_Methodref 及其 NameAndType
func (b *Builder) AddMethodRef(owner, name, desc string) *Builder {
	classIdx := b.Class(owner)
	nameIdx := b.UTF8(name)
	descIdx := b.UTF8(desc)
	b.pool.WriteByte(12)
	_ = binary.Write(&b.pool, binary.BigEndian, nameIdx)
	_ = binary.Write(&b.pool, binary.BigEndian, descIdx)
	nat := b.poolCount
	b.poolCount++
	b.pool.WriteByte(10)
	_ = binary.Write(&b.pool, binary.BigEndian, classIdx)
	_ = binary.Write(&b.pool, binary.BigEndian, nat)
	b.poolCount++
	return b
}

// AddInterface 添加实现的接口
func (b *Builder) AddInterface(name string) *Builder {
	b.interfaces = append(b.interfaces, b.Class(name))
	return b
}

// AddField 添加字段
func (b *Builder) AddField(name, desc string) *Builder {
	b.fields = append(b.fields, member{name: b.UTF8(name), desc: b.UTF8(desc)})
	return b
}

// AddMethod 添加方法，每个方法带一个 Code 属性
func (b *Builder) AddMethod(name, desc string) *Builder {
	b.methods = append(b.methods, member{name: b.UTF8(name), desc: b.UTF8(desc)})
	return b
}

// Build 输出类文件字节
func (b *Builder) Build() []byte {
	var out bytes.Buffer
	w := func(v interface{}) { _ = binary.Write(&out, binary.BigEndian, v) }

	w(uint32(0xCAFEBABE))
	w(uint16(0))  // minor
	w(uint16(52)) // major (Java 8)
	w(b.poolCount)
	out.Write(b.pool.Bytes())

	w(uint16(0x0021)) // ACC_PUBLIC | ACC_SUPER
	w(b.thisClass)
	w(b.superClass)

	w(uint16(len(b.interfaces)))
	for _, idx := range b.interfaces {
		w(idx)
	}

	w(uint16(len(b.fields)))
	for _, f := range b.fields {
		w(uint16(0x0002))
		w(f.name)
		w(f.desc)
		w(uint16(0))
	}

	// Code 属性内容对解析器是不透明的，只需长度正确
	code := []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0xB1, 0x00, 0x00, 0x00, 0x00}
	w(uint16(len(b.methods)))
	for _, m := range b.methods {
		w(uint16(0x0001))
		w(m.name)
		w(m.desc)
		w(uint16(1))
		w(b.codeName)
		w(uint32(len(code)))
		out.Write(code)
	}

	w(uint16(1))
	w(b.sourceName)
	w(uint32(2))
	w(b.sourceFile)

	return out.Bytes()
}
