package resolver

import (
	"github.com/bakito/crd-schema-gen/internal/schema"
)

// primitives maps declared primitive names to their schema type and format.
var primitives = map[string]schema.Primitive{
	"string":        {Type: schema.String},
	"str":           {Type: schema.String},
	"bool":          {Type: schema.Boolean},
	"boolean":       {Type: schema.Boolean},
	"int":           {Type: schema.Integer},
	"integer":       {Type: schema.Integer},
	"int32":         {Type: schema.Integer, Format: "int32"},
	"int64":         {Type: schema.Integer, Format: "int64"},
	"float":         {Type: schema.Number, Format: "float"},
	"float32":       {Type: schema.Number, Format: "float"},
	"float64":       {Type: schema.Number, Format: "double"},
	"double":        {Type: schema.Number, Format: "double"},
	"number":        {Type: schema.Number},
	"date-time":     {Type: schema.String, Format: "date-time"},
	"datetime":      {Type: schema.String, Format: "date-time"},
	"time":          {Type: schema.String, Format: "date-time"},
	"date":          {Type: schema.String, Format: "date"},
	"byte":          {Type: schema.String, Format: "byte"},
	"bytes":         {Type: schema.String, Format: "byte"},
	"int-or-string": {Type: schema.IntOrString},
	"intorstring":   {Type: schema.IntOrString},
	"any":           {Type: schema.Any},
}

// unsupported lists type names that exist in Go but have no JSON representation.
var unsupported = map[string]string{
	"complex64":      "complex numbers have no JSON representation",
	"complex128":     "complex numbers have no JSON representation",
	"chan":           "channels have no JSON representation",
	"func":           "functions have no JSON representation",
	"uintptr":        "pointers have no JSON representation",
	"unsafe.Pointer": "pointers have no JSON representation",
}

// primitive returns a fresh node for the primitive named name.
func primitive(name string) (*schema.Primitive, bool) {
	p, ok := primitives[name]
	if !ok {
		return nil, false
	}
	return &p, true
}
