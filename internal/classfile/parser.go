package classfile

// Magic 标准类文件魔数
const Magic uint32 = 0xCAFEBABE

// HasStandardMagic 只检查前两个字节 (0xCA 0xFE)。
// 不匹配的输入视为定制 JVM 加载器使用的非标准类文件，由调用方处理，不进入结构解析
func HasStandardMagic(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xCA && data[1] == 0xFE
}

type cpEntry struct {
	tag  uint8
	utf8 string
	ref1 uint16
	ref2 uint16
}

// constantPool 下标从 1 开始，0 和 long/double 的第二个槽位为空
type constantPool []cpEntry

func (cp constantPool) entry(idx uint16, what string) (*cpEntry, error) {
	if idx == 0 || int(idx) >= len(cp) {
		return nil, malformed("%s: constant pool index %d out of range [1,%d)", what, idx, len(cp))
	}
	e := &cp[idx]
	if e.tag == 0 {
		return nil, malformed("%s: constant pool index %d points to an unusable slot", what, idx)
	}
	return e, nil
}

func (cp constantPool) expect(idx uint16, tag uint8, what string) (*cpEntry, error) {
	e, err := cp.entry(idx, what)
	if err != nil {
		return nil, err
	}
	if e.tag != tag {
		return nil, malformed("%s: constant pool index %d has tag %d, expected %d", what, idx, e.tag, tag)
	}
	return e, nil
}

func (cp constantPool) utf8At(idx uint16, what string) (string, error) {
	e, err := cp.expect(idx, TagUtf8, what)
	if err != nil {
		return "", err
	}
	return e.utf8, nil
}

func (cp constantPool) classNameAt(idx uint16, what string) (string, error) {
	e, err := cp.expect(idx, TagClass, what)
	if err != nil {
		return "", err
	}
	return cp.utf8At(e.ref1, what)
}

// Parse 解析类文件二进制为结构摘要。输入不可信：所有长度和下标都先检查再使用
func Parse(data []byte) (*ClassDetails, error) {
	r := newReader(data)

	magic, err := r.u4("magic")
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, malformed("bad magic 0x%08X", magic)
	}

	details := &ClassDetails{}
	if details.MinorVersion, err = r.u2("minor_version"); err != nil {
		return nil, err
	}
	if details.MajorVersion, err = r.u2("major_version"); err != nil {
		return nil, err
	}

	cp, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}
	if err := cp.validate(); err != nil {
		return nil, err
	}

	if details.AccessFlags, err = r.u2("access_flags"); err != nil {
		return nil, err
	}

	thisIdx, err := r.u2("this_class")
	if err != nil {
		return nil, err
	}
	if details.ClassName, err = cp.classNameAt(thisIdx, "this_class"); err != nil {
		return nil, err
	}

	superIdx, err := r.u2("super_class")
	if err != nil {
		return nil, err
	}
	// super_class 为 0 仅出现在 java/lang/Object 和 module-info
	if superIdx != 0 {
		if details.SuperclassName, err = cp.classNameAt(superIdx, "super_class"); err != nil {
			return nil, err
		}
	}

	if details.Interfaces, err = parseInterfaces(r, cp); err != nil {
		return nil, err
	}
	if details.Fields, err = parseMembers(r, cp, "field"); err != nil {
		return nil, err
	}
	if details.Methods, err = parseMembers(r, cp, "method"); err != nil {
		return nil, err
	}
	if err := skipAttributes(r, cp, "class"); err != nil {
		return nil, err
	}

	details.Strings = cp.literals()
	return details, nil
}

func parseConstantPool(r *reader) (constantPool, error) {
	count, err := r.u2("constant_pool_count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, malformed("constant_pool_count is zero")
	}
	// 最短的条目占 3 字节，先拒绝明显超出剩余长度的计数
	if (int(count)-1)*3 > r.remaining() {
		return nil, malformed("constant_pool_count %d inconsistent with %d remaining bytes", count, r.remaining())
	}

	cp := make(constantPool, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u1("constant pool tag")
		if err != nil {
			return nil, err
		}

		e := &cp[i]
		e.tag = tag

		switch tag {
		case TagUtf8:
			n, err := r.u2("utf8 length")
			if err != nil {
				return nil, err
			}
			raw, err := r.bytes(int(n), "utf8 bytes")
			if err != nil {
				return nil, err
			}
			e.utf8 = decodeModifiedUTF8(raw)

		case TagInteger, TagFloat:
			if err := r.skip(4, "numeric constant"); err != nil {
				return nil, err
			}

		case TagLong, TagDouble:
			if err := r.skip(8, "wide numeric constant"); err != nil {
				return nil, err
			}
			// 8 字节常量占两个槽位
			if i+1 >= int(count) {
				return nil, malformed("wide constant at index %d overflows constant pool", i)
			}
			i++

		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			if e.ref1, err = r.u2("constant reference"); err != nil {
				return nil, err
			}

		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			if e.ref1, err = r.u2("constant reference"); err != nil {
				return nil, err
			}
			if e.ref2, err = r.u2("constant reference"); err != nil {
				return nil, err
			}

		case TagMethodHandle:
			kind, err := r.u1("method handle kind")
			if err != nil {
				return nil, err
			}
			if kind < 1 || kind > 9 {
				return nil, malformed("method handle at index %d has invalid kind %d", i, kind)
			}
			e.ref1 = uint16(kind)
			if e.ref2, err = r.u2("method handle reference"); err != nil {
				return nil, err
			}

		default:
			return nil, malformed("unknown constant pool tag %d at index %d", tag, i)
		}
	}

	return cp, nil
}

// validate 解析符号引用，保证后续按下标取名时不会越界或类型错乱
func (cp constantPool) validate() error {
	for i := 1; i < len(cp); i++ {
		e := cp[i]
		var err error

		switch e.tag {
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			_, err = cp.utf8At(e.ref1, "symbolic reference")

		case TagNameAndType:
			if _, err = cp.utf8At(e.ref1, "name_and_type name"); err == nil {
				_, err = cp.utf8At(e.ref2, "name_and_type descriptor")
			}

		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			if _, err = cp.classNameAt(e.ref1, "member ref class"); err == nil {
				_, err = cp.expect(e.ref2, TagNameAndType, "member ref name_and_type")
			}

		case TagDynamic, TagInvokeDynamic:
			// ref1 指向 BootstrapMethods 属性，不在常量池内
			_, err = cp.expect(e.ref2, TagNameAndType, "dynamic name_and_type")

		case TagMethodHandle:
			_, err = cp.entry(e.ref2, "method handle reference")
		}

		if err != nil {
			return err
		}
	}
	return nil
}

// literals 按出现顺序返回去重后的 UTF-8 字面量
func (cp constantPool) literals() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 1; i < len(cp); i++ {
		if cp[i].tag != TagUtf8 {
			continue
		}
		s := cp[i].utf8
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func parseInterfaces(r *reader, cp constantPool) ([]string, error) {
	count, err := r.u2("interfaces_count")
	if err != nil {
		return nil, err
	}
	if int(count)*2 > r.remaining() {
		return nil, malformed("interfaces_count %d inconsistent with %d remaining bytes", count, r.remaining())
	}

	interfaces := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		idx, err := r.u2("interface index")
		if err != nil {
			return nil, err
		}
		name, err := cp.classNameAt(idx, "interface")
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, name)
	}
	return interfaces, nil
}

func parseMembers(r *reader, cp constantPool, kind string) ([]MemberInfo, error) {
	count, err := r.u2(kind + "s_count")
	if err != nil {
		return nil, err
	}
	// 每个成员至少 8 字节：access, name, descriptor, attributes_count
	if int(count)*8 > r.remaining() {
		return nil, malformed("%ss_count %d inconsistent with %d remaining bytes", kind, count, r.remaining())
	}

	members := make([]MemberInfo, 0, count)
	for i := 0; i < int(count); i++ {
		var m MemberInfo
		if m.AccessFlags, err = r.u2(kind + " access_flags"); err != nil {
			return nil, err
		}
		nameIdx, err := r.u2(kind + " name_index")
		if err != nil {
			return nil, err
		}
		if m.Name, err = cp.utf8At(nameIdx, kind+" name"); err != nil {
			return nil, err
		}
		descIdx, err := r.u2(kind + " descriptor_index")
		if err != nil {
			return nil, err
		}
		if m.Descriptor, err = cp.utf8At(descIdx, kind+" descriptor"); err != nil {
			return nil, err
		}
		if err := skipAttributes(r, cp, kind); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// skipAttributes 按长度跳过属性表，不解释属性内容
func skipAttributes(r *reader, cp constantPool, owner string) error {
	count, err := r.u2(owner + " attributes_count")
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2(owner + " attribute name_index")
		if err != nil {
			return err
		}
		if _, err := cp.utf8At(nameIdx, owner+" attribute name"); err != nil {
			return err
		}
		length, err := r.u4(owner + " attribute length")
		if err != nil {
			return err
		}
		if uint64(length) > uint64(r.remaining()) {
			return malformed("%s attribute length %d exceeds %d remaining bytes", owner, length, r.remaining())
		}
		if err := r.skip(int(length), owner+" attribute"); err != nil {
			return err
		}
	}
	return nil
}
