package idl

// Interface is a parsed varlink interface definition. It is immutable
// after parsing; the original source text is preserved verbatim so
// introspection can return it byte for byte.
type Interface struct {
	Name        string
	Doc         string
	Description string

	members     map[string]Member
	memberNames []string
}

// NewInterface parses an interface definition written in the varlink
// interface definition language.
func NewInterface(description string) (iface *Interface, err error) {
	s := NewScanner(description)
	if _, err = s.Expect("interface"); err != nil {
		return
	}
	name, err := s.Expect("interface-name")
	if err != nil {
		return
	}

	iface = &Interface{
		Name:        name,
		Doc:         s.takeDoc(),
		Description: description,
		members:     map[string]Member{},
	}

	for !s.End() {
		member, memberErr := s.readMember()
		if memberErr != nil {
			return nil, memberErr
		}
		if _, exists := iface.members[member.MemberName()]; exists {
			return nil, syntaxErrorf("duplicate member '%s'", member.MemberName())
		}
		iface.members[member.MemberName()] = member
		iface.memberNames = append(iface.memberNames, member.MemberName())
	}
	return
}

// Member returns the named member, if declared.
func (iface *Interface) Member(name string) (Member, bool) {
	member, ok := iface.members[name]
	return member, ok
}

// MemberNames lists the members in declaration order.
func (iface *Interface) MemberNames() []string {
	names := make([]string, len(iface.memberNames))
	copy(names, iface.memberNames)
	return names
}

// readMember parses one 'type', 'method' or 'error' declaration.
func (s *Scanner) readMember() (Member, error) {
	if _, ok := s.Get("type"); ok {
		name, err := s.Expect("member-name")
		if err != nil {
			return nil, syntaxErrorf("'%s' not a valid type name.", s.offendingWord())
		}
		aliasType, err := s.readType(false)
		if err != nil {
			return nil, err
		}
		return &Alias{Name: name, Type: aliasType, Doc: s.takeDoc()}, nil
	}

	if _, ok := s.Get("method"); ok {
		name, err := s.Expect("member-name")
		if err != nil {
			return nil, err
		}
		signature := ""
		if sig := methodSignaturePattern.FindString(s.src[s.pos:]); sig != "" {
			signature = name + sig
		}
		inType, err := s.readStruct()
		if err != nil {
			return nil, err
		}
		if _, err := s.Expect("->"); err != nil {
			return nil, err
		}
		outType, err := s.readStruct()
		if err != nil {
			return nil, err
		}
		return &Method{Name: name, In: inType, Out: outType, Signature: signature, Doc: s.takeDoc()}, nil
	}

	if _, ok := s.Get("error"); ok {
		doc := s.takeDoc()
		name, err := s.Expect("member-name")
		if err != nil {
			return nil, err
		}
		payloadType, err := s.readType(false)
		if err != nil {
			return nil, err
		}
		return &ErrorDef{Name: name, Type: payloadType, Doc: doc}, nil
	}

	return nil, &SyntaxError{Msg: "expected type, method, or error"}
}

// readType parses one type expression.
func (s *Scanner) readType(lastMaybe bool) (*Type, error) {
	if _, ok := s.Get("?"); ok {
		if lastMaybe {
			return nil, &SyntaxError{Msg: "double '??'"}
		}
		elem, err := s.readType(true)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindMaybe, Elem: elem}, nil
	}

	if _, ok := s.Get("[string]()"); ok {
		return &Type{Kind: KindSet}, nil
	}

	if _, ok := s.Get("[string]"); ok {
		elem, err := s.readType(false)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindMap, Elem: elem}, nil
	}

	if _, ok := s.Get("[]"); ok {
		elem, err := s.readType(false)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindArray, Elem: elem}, nil
	}

	if _, ok := s.Get("object"); ok {
		return &Type{Kind: KindObject}, nil
	}
	if _, ok := s.Get("bool"); ok {
		return &Type{Kind: KindBool}, nil
	}
	if _, ok := s.Get("int"); ok {
		return &Type{Kind: KindInt}, nil
	}
	if _, ok := s.Get("float"); ok {
		return &Type{Kind: KindFloat}, nil
	}
	if _, ok := s.Get("string"); ok {
		return &Type{Kind: KindString}, nil
	}

	if name, ok := s.Get("member-name"); ok {
		return &Type{Kind: KindCustom, Name: name}, nil
	}

	return s.readStruct()
}

// readStruct parses a parenthesized field list. Whether it denotes a
// struct or an enum is decided by the first field: a ':' makes it a
// struct, a ',' or ')' makes it an enum. Mixing shapes is a syntax
// error naming the offending field.
func (s *Scanner) readStruct() (*Type, error) {
	if _, err := s.Expect("("); err != nil {
		return nil, err
	}

	var isEnum *bool
	var fields []Field
	var tags []string

	if _, ok := s.Get(")"); !ok {
		for {
			name, err := s.Expect("identifier")
			if err != nil {
				return nil, err
			}

			if isEnum == nil {
				if _, ok := s.Get(":"); ok {
					isEnum = new(bool)
					fieldType, err := s.readType(false)
					if err != nil {
						return nil, err
					}
					fields = append(fields, Field{Name: name, Type: fieldType})
					if _, ok := s.Get(","); !ok {
						break
					}
					continue
				} else if _, ok := s.Get(","); ok {
					isEnum = new(bool)
					*isEnum = true
					tags = append(tags, name)
					continue
				} else if _, ok := s.Get(")"); ok {
					return &Type{Kind: KindEnum, Tags: []string{name}}, nil
				} else {
					return nil, syntaxErrorf("after '%s'", name)
				}
			} else if !*isEnum {
				if _, err := s.Expect(":"); err != nil {
					return nil, syntaxErrorf("after '%s': %s", name, err)
				}
				fieldType, err := s.readType(false)
				if err != nil {
					return nil, syntaxErrorf("after '%s': %s", name, err)
				}
				for i := range fields {
					if fields[i].Name == name {
						return nil, syntaxErrorf("duplicate field '%s'", name)
					}
				}
				fields = append(fields, Field{Name: name, Type: fieldType})
			} else {
				tags = append(tags, name)
			}

			if _, ok := s.Get(","); !ok {
				break
			}
		}
		if _, err := s.Expect(")"); err != nil {
			return nil, err
		}
	}

	if isEnum != nil && *isEnum {
		return &Type{Kind: KindEnum, Tags: tags}, nil
	}
	return &Type{Kind: KindStruct, Fields: fields}, nil
}
