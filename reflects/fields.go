package reflects

import (
	"reflect"
)

func structType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}

// field discovery strategies, most complete first
var fieldScanners = []struct {
	name string
	scan func(reflect.Type) []reflect.StructField
}{
	{"visible", reflect.VisibleFields},
	{"declared", declaredFields},
	{"embedded", embeddedFields},
}

func declaredFields(t reflect.Type) (ret []reflect.StructField) {
	for i := 0; i < t.NumField(); i++ {
		ret = append(ret, t.Field(i))
	}
	return
}

func embeddedFields(t reflect.Type) (ret []reflect.StructField) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ret = append(ret, f)
		ft, ok := structType(f.Type)
		if !ok || f.Type.Kind() == reflect.Pointer {
			continue
		}
		for j := 0; j < ft.NumField(); j++ {
			inner := ft.Field(j)
			inner.Index = append([]int{i}, inner.Index...)
			ret = append(ret, inner)
		}
	}
	return
}

func tryScan(scan func(reflect.Type) []reflect.StructField, t reflect.Type) (fields []reflect.StructField, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
		}
	}()
	return scan(t), true
}

func (c *Class) initFields() {
	c.fieldsOnce.Do(func() {
		c.fields = make(map[string]*Field)
		st, ok := structType(c.Type)
		if !ok {
			return
		}
		for _, scanner := range fieldScanners {
			fields, ok := tryScan(scanner.scan, st)
			if !ok {
				continue
			}
			c.fieldsMode = scanner.name
			for _, f := range fields {
				if !f.IsExported() {
					continue
				}
				if _, ok := c.fields[f.Name]; ok {
					continue
				}
				c.fields[f.Name] = &Field{
					Name:  f.Name,
					Index: f.Index,
					Type:  f.Type,
				}
			}
			return
		}
	})
}

// Field returns the exported field named name, promoted fields included.
func (c *Class) Field(name string) (*Field, bool) {
	c.initFields()
	f, ok := c.fields[name]
	return f, ok
}

func (c *Class) FieldNames() []string {
	c.initFields()
	return sortedKeys(c.fields)
}

// FieldsMode names the discovery strategy that produced the field index.
func (c *Class) FieldsMode() string {
	c.initFields()
	return c.fieldsMode
}

// Nested returns a nested type by name: exported embedded struct types and
// types registered with DefineNested.
func (c *Class) Nested(name string) (reflect.Type, bool) {
	c.initNested()
	t, ok := c.nested[name]
	return t, ok
}

func (c *Class) NestedNames() []string {
	c.initNested()
	return sortedKeys(c.nested)
}

func (c *Class) initNested() {
	c.nestedOnce.Do(func() {
		c.nested = make(map[string]reflect.Type)
		if st, ok := structType(c.Type); ok {
			if fields, ok := tryScan(declaredFields, st); ok {
				for _, f := range fields {
					if !f.Anonymous || !f.IsExported() {
						continue
					}
					if _, ok := structType(f.Type); !ok {
						continue
					}
					c.nested[f.Name] = f.Type
				}
			}
		}
		registry.Lock()
		for name, t := range registry.nested[c.Type] {
			c.nested[name] = t
		}
		registry.Unlock()
	})
}
