package portalrpc

import (
	"github.com/swaggest/jsonschema-go"

	"ethportal.io/api/model"
	"ethportal.io/api/primitives"
)

// paramTypes are the Go values reflected into each parameter's schema.
var paramTypes = map[string]any{
	ParamENR:        primitives.ENR(""),
	ParamDistances:  []uint16{},
	ParamContentKey: model.ContentKey{},
	ParamContent:    primitives.Bytes{},
}

func reflectSchema(v any) (jsonschema.Schema, error) {
	var reflector jsonschema.Reflector
	return reflector.Reflect(v, jsonschema.InlineRefs)
}

// MethodSchemas describes every method of every network, in network then table order.
func MethodSchemas() ([]model.MethodSchema, error) {
	var out []model.MethodSchema
	for _, p := range primitives.Networks() {
		for _, def := range methodTable {
			ms := model.MethodSchema{Name: MethodName(p, def.name), Params: []model.ParamSchema{}}
			for _, name := range def.params {
				s, err := reflectSchema(paramTypes[name])
				if err != nil {
					return nil, err
				}
				if name == ParamDistances {
					s.WithUniqueItems(true)
					s.WithMaxItems(maxDistance + 1)
					s.WithDescription("log2 distances, each in 0..256")
				}
				ms.Params = append(ms.Params, model.ParamSchema{Name: name, Required: true, Schema: s})
			}
			result, err := reflectSchema(def.result)
			if err != nil {
				return nil, err
			}
			ms.Result = result
			out = append(out, ms)
		}
	}
	return out, nil
}
