package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/rafters-design/tokengraph/pkg/intelligence"
	"github.com/rafters-design/tokengraph/pkg/store"
)

// GenerateSchema generates a GraphQL schema over an analyzer. Every query
// delegates to the analyzer or its registry, so results are the same records
// the Go API returns.
func GenerateSchema(a *intelligence.Analyzer) (graphql.Schema, error) {
	reg := a.Registry()

	tokenType := createTokenType(reg)
	statsType := createStatsType()
	analysisType := createAnalysisType()
	findingType := createFindingType()
	performanceType := createPerformanceType()
	bottleneckType := createBottleneckType()
	validationType := createValidationType(findingType, performanceType, bottleneckType)
	executionType := createExecutionType()
	predictionType := createPredictionType()
	riskType := createRiskType()
	impactType := createImpactType(predictionType, riskType)

	changeInput := createChangeInput()
	overrideInput := createOverrideInput()

	queryFields := graphql.Fields{
		// Always include a health check query
		"health": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return "ok", nil
			},
		},
		"stats": &graphql.Field{
			Type: statsType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return reg.Stats(), nil
			},
		},
		"token": &graphql.Field{
			Type: tokenType,
			Args: graphql.FieldConfigArgument{
				"name": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: createTokenResolver(reg),
		},
		"tokens": &graphql.Field{
			Type:    graphql.NewList(tokenType),
			Resolve: createTokensResolver(reg),
		},
		"analyze": &graphql.Field{
			Type: analysisType,
			Args: graphql.FieldConfigArgument{
				"token": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"include_indirect": &graphql.ArgumentConfig{
					Type:         graphql.Boolean,
					DefaultValue: false,
				},
				"max_depth": &graphql.ArgumentConfig{
					Type:         graphql.Int,
					DefaultValue: 0,
				},
			},
			Resolve: createAnalyzeResolver(a),
		},
		"validate": &graphql.Field{
			Type: validationType,
			Args: graphql.FieldConfigArgument{
				"changes": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(changeInput))),
				},
			},
			Resolve: createValidateResolver(a),
		},
		"execute": &graphql.Field{
			Type: executionType,
			Args: graphql.FieldConfigArgument{
				"token": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"rule": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"dependencies": &graphql.ArgumentConfig{
					Type: graphql.NewList(graphql.String),
				},
				"overrides": &graphql.ArgumentConfig{
					Type: graphql.NewList(overrideInput),
				},
			},
			Resolve: createExecuteResolver(a),
		},
		"predict": &graphql.Field{
			Type: impactType,
			Args: graphql.FieldConfigArgument{
				"token": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"new_value": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: createPredictResolver(a),
		},
		"cycles": &graphql.Field{
			Type: graphql.NewList(graphql.NewList(graphql.String)),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return reg.Graph().DetectCycles(), nil
			},
		},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: queryFields,
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})

	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}

	return schema, nil
}

// createTokenType creates the Token object type. Graph-derived fields close
// over the registry so they reflect live state at query time.
func createTokenType(reg *store.Registry) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Token",
		Fields: graphql.Fields{
			"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"value":      &graphql.Field{Type: graphql.String},
			"category":   &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
			"rule": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if t, ok := p.Source.(*store.Token); ok {
						if edge, ok := reg.Graph().Rule(t.Name); ok {
							return edge.Text, nil
						}
					}
					return nil, nil
				},
			},
			"dependencies": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if t, ok := p.Source.(*store.Token); ok {
						return reg.Graph().DirectDependencies(t.Name), nil
					}
					return nil, nil
				},
			},
			"dependents": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if t, ok := p.Source.(*store.Token); ok {
						return reg.Graph().Dependents(t.Name), nil
					}
					return nil, nil
				},
			},
		},
	})
}

// createTokenResolver creates a resolver for fetching a single token by name
func createTokenResolver(reg *store.Registry) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		name, ok := p.Args["name"].(string)
		if !ok {
			return nil, fmt.Errorf("name argument is required")
		}

		token, ok := reg.Tokens().Get(name)
		if !ok {
			return nil, nil
		}
		return token, nil
	}
}

// createTokensResolver creates a resolver listing all tokens in registration order
func createTokensResolver(reg *store.Registry) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		names := reg.Tokens().Names()
		tokens := make([]*store.Token, 0, len(names))
		for _, name := range names {
			if token, ok := reg.Tokens().Get(name); ok {
				tokens = append(tokens, token)
			}
		}
		return tokens, nil
	}
}

func createAnalyzeResolver(a *intelligence.Analyzer) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		name, ok := p.Args["token"].(string)
		if !ok {
			return nil, fmt.Errorf("token argument is required")
		}

		var opts intelligence.AnalyzeOptions
		if v, ok := p.Args["include_indirect"].(bool); ok {
			opts.IncludeIndirect = v
		}
		if v, ok := p.Args["max_depth"].(int); ok {
			opts.MaxDepth = v
		}

		return a.AnalyzeDependencies(name, opts), nil
	}
}

func createValidateResolver(a *intelligence.Analyzer) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		raw, ok := p.Args["changes"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("changes argument is required")
		}

		return a.ValidateChanges(decodeChanges(raw)), nil
	}
}

func createExecuteResolver(a *intelligence.Analyzer) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		token, ok := p.Args["token"].(string)
		if !ok {
			return nil, fmt.Errorf("token argument is required")
		}
		rule, ok := p.Args["rule"].(string)
		if !ok {
			return nil, fmt.Errorf("rule argument is required")
		}

		var ec intelligence.ExecutionContext
		if deps, ok := p.Args["dependencies"].([]interface{}); ok {
			ec.Dependencies = stringList(deps)
		}
		if raw, ok := p.Args["overrides"].([]interface{}); ok && len(raw) > 0 {
			ec.Overrides = make(map[string]string, len(raw))
			for _, item := range raw {
				m, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				name, _ := m["name"].(string)
				value, _ := m["value"].(string)
				if name != "" {
					ec.Overrides[name] = value
				}
			}
		}

		return a.ExecuteRule(token, rule, ec), nil
	}
}

func createPredictResolver(a *intelligence.Analyzer) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		token, ok := p.Args["token"].(string)
		if !ok {
			return nil, fmt.Errorf("token argument is required")
		}
		newValue, ok := p.Args["new_value"].(string)
		if !ok {
			return nil, fmt.Errorf("new_value argument is required")
		}

		return a.PredictCascadeImpact(token, newValue), nil
	}
}

// decodeChanges converts the ChangeInput list delivered by graphql-go into
// analyzer change requests.
func decodeChanges(raw []interface{}) []intelligence.ChangeRequest {
	changes := make([]intelligence.ChangeRequest, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		var c intelligence.ChangeRequest
		if v, ok := m["name"].(string); ok {
			c.Name = v
		}
		if v, ok := m["value"].(string); ok {
			c.Value = v
		}
		if v, ok := m["category"].(string); ok {
			c.Category = v
		}
		if v, ok := m["rule"].(string); ok {
			c.Rule = v
		}
		if deps, ok := m["dependencies"].([]interface{}); ok {
			c.Dependencies = stringList(deps)
		}
		changes = append(changes, c)
	}
	return changes
}

func stringList(raw []interface{}) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
