package templates

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Owner describes the type whose properties are generated.
type Owner struct {
	Package  string
	Type     string
	Registry string
	Props    []Prop
}

// Prop is one declared property. Field is the struct field holding the
// props.Property; Setter, if set, names a method on the owner.
type Prop struct {
	Name   string
	Field  string
	Type   string
	Setter string
}

func (o *Owner) HasSetters() bool {
	for _, p := range o.Props {
		if p.Setter != "" {
			return true
		}
	}
	return false
}

// NewOwner builds the template input from a type name and property specs
// of the form name:type or name:type:setter.
func NewOwner(pkg, typeName string, specs []string) (*Owner, error) {
	if pkg == "" || typeName == "" {
		return nil, fmt.Errorf("package and type are required")
	}
	o := &Owner{
		Package:  pkg,
		Type:     typeName,
		Registry: lowerFirst(typeName) + "Properties",
	}
	seen := map[string]bool{}
	for _, spec := range specs {
		p, err := ParseProp(spec)
		if err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("property %q declared twice", p.Name)
		}
		seen[p.Name] = true
		o.Props = append(o.Props, p)
	}
	return o, nil
}

func ParseProp(spec string) (Prop, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Prop{}, fmt.Errorf("invalid property %q, want name:type[:setter]", spec)
	}
	p := Prop{
		Name: strings.TrimSpace(parts[0]),
		Type: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		p.Setter = strings.TrimSpace(parts[2])
	}
	if !isIdent(p.Name) {
		return Prop{}, fmt.Errorf("invalid property name %q", p.Name)
	}
	if p.Type == "" {
		return Prop{}, fmt.Errorf("property %q has no type", p.Name)
	}
	if p.Setter != "" && !isIdent(p.Setter) {
		return Prop{}, fmt.Errorf("invalid setter %q for property %q", p.Setter, p.Name)
	}
	p.Field = upperFirst(p.Name)
	return p, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}
