package ibus

import "github.com/godbus/dbus/v5"

// ibusAttrList is the D-Bus form of an empty IBusAttrList: (sa{sv}av).
type ibusAttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

// ibusText is the D-Bus form of IBusText: (sa{sv}sv).
type ibusText struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	AttrList    dbus.Variant
}

// textVariant wraps s as a serialized IBusText.
func textVariant(s string) dbus.Variant {
	return dbus.MakeVariant(ibusText{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        s,
		AttrList: dbus.MakeVariant(ibusAttrList{
			Name:        "IBusAttrList",
			Attachments: map[string]dbus.Variant{},
			Attributes:  []dbus.Variant{},
		}),
	})
}

// textFromVariant extracts the string of a serialized IBusText. Plain string
// variants are accepted as well.
func textFromVariant(v dbus.Variant) string {
	switch val := v.Value().(type) {
	case string:
		return val
	case []interface{}:
		if len(val) >= 3 {
			if s, ok := val[2].(string); ok {
				return s
			}
		}
	case ibusText:
		return val.Text
	}
	return ""
}
