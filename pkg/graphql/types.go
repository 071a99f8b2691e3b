package graphql

import (
	"github.com/graphql-go/graphql"
)

// Field names match the json tags on the analyzer records, so a GraphQL
// response shape is the same as the record marshaled directly.

func createStatsType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"tokens": &graphql.Field{Type: graphql.Int},
			"rules":  &graphql.Field{Type: graphql.Int},
			"edges":  &graphql.Field{Type: graphql.Int},
		},
	})
}

func createAnalysisType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "DependencyAnalysis",
		Fields: graphql.Fields{
			"success":               &graphql.Field{Type: graphql.Boolean},
			"token":                 &graphql.Field{Type: graphql.String},
			"exists":                &graphql.Field{Type: graphql.Boolean},
			"direct_dependencies":   &graphql.Field{Type: graphql.NewList(graphql.String)},
			"indirect_dependencies": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"dependents":            &graphql.Field{Type: graphql.NewList(graphql.String)},
			"cascade_scope":         &graphql.Field{Type: graphql.NewList(graphql.String)},
			"dependency_depth":      &graphql.Field{Type: graphql.Int},
			"rule":                  &graphql.Field{Type: graphql.String},
			"rule_kind":             &graphql.Field{Type: graphql.String},
			"circular_dependencies": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"complexity_score":      &graphql.Field{Type: graphql.Float},
			"confidence":            &graphql.Field{Type: graphql.Float},
			"execution_time_ms":     &graphql.Field{Type: graphql.Float},
		},
	})
}

func createFindingType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "ValidationFinding",
		Fields: graphql.Fields{
			"change":      &graphql.Field{Type: graphql.String},
			"kind":        &graphql.Field{Type: graphql.String},
			"severity":    &graphql.Field{Type: graphql.String},
			"message":     &graphql.Field{Type: graphql.String},
			"remediation": &graphql.Field{Type: graphql.String},
			"cycle_path":  &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})
}

func createPerformanceType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "PerformanceEstimate",
		Fields: graphql.Fields{
			"estimated_millis": &graphql.Field{Type: graphql.Float},
			"level":            &graphql.Field{Type: graphql.String},
			"changes":          &graphql.Field{Type: graphql.Int},
			"dependencies":     &graphql.Field{Type: graphql.Int},
			"rule_executions":  &graphql.Field{Type: graphql.Int},
		},
	})
}

func createBottleneckType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Bottleneck",
		Fields: graphql.Fields{
			"token":   &graphql.Field{Type: graphql.String},
			"kind":    &graphql.Field{Type: graphql.String},
			"detail":  &graphql.Field{Type: graphql.String},
			"measure": &graphql.Field{Type: graphql.Int},
		},
	})
}

func createValidationType(finding, performance, bottleneck *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "ValidationResult",
		Fields: graphql.Fields{
			"success":           &graphql.Field{Type: graphql.Boolean},
			"is_valid":          &graphql.Field{Type: graphql.Boolean},
			"errors":            &graphql.Field{Type: graphql.NewList(finding)},
			"warnings":          &graphql.Field{Type: graphql.NewList(finding)},
			"infos":             &graphql.Field{Type: graphql.NewList(finding)},
			"performance":       &graphql.Field{Type: performance},
			"bottlenecks":       &graphql.Field{Type: graphql.NewList(bottleneck)},
			"confidence":        &graphql.Field{Type: graphql.Float},
			"execution_time_ms": &graphql.Field{Type: graphql.Float},
		},
	})
}

func createExecutionType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "RuleExecutionResult",
		Fields: graphql.Fields{
			"success":           &graphql.Field{Type: graphql.Boolean},
			"token":             &graphql.Field{Type: graphql.String},
			"rule":              &graphql.Field{Type: graphql.String},
			"rule_kind":         &graphql.Field{Type: graphql.String},
			"value":             &graphql.Field{Type: graphql.String},
			"confidence":        &graphql.Field{Type: graphql.Float},
			"reasoning":         &graphql.Field{Type: graphql.String},
			"unresolved":        &graphql.Field{Type: graphql.NewList(graphql.String)},
			"execution_time_ms": &graphql.Field{Type: graphql.Float},
		},
	})
}

func createPredictionType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenPrediction",
		Fields: graphql.Fields{
			"token":            &graphql.Field{Type: graphql.String},
			"current_value":    &graphql.Field{Type: graphql.String},
			"predicted_value":  &graphql.Field{Type: graphql.String},
			"confidence":       &graphql.Field{Type: graphql.Float},
			"rule":             &graphql.Field{Type: graphql.String},
			"rule_kind":        &graphql.Field{Type: graphql.String},
			"manually_managed": &graphql.Field{Type: graphql.Boolean},
			"reasoning":        &graphql.Field{Type: graphql.String},
		},
	})
}

func createRiskType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "RiskAssessment",
		Fields: graphql.Fields{
			"breaking_change_risk": &graphql.Field{Type: graphql.String},
			"visual_impact":        &graphql.Field{Type: graphql.String},
			"accessibility_risk":   &graphql.Field{Type: graphql.String},
			"semantic_consistency": &graphql.Field{Type: graphql.Float},
		},
	})
}

func createImpactType(prediction, risk *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "CascadeImpactAnalysis",
		Fields: graphql.Fields{
			"success":            &graphql.Field{Type: graphql.Boolean},
			"token":              &graphql.Field{Type: graphql.String},
			"exists":             &graphql.Field{Type: graphql.Boolean},
			"new_value":          &graphql.Field{Type: graphql.String},
			"affected_tokens":    &graphql.Field{Type: graphql.NewList(prediction)},
			"impact_score":       &graphql.Field{Type: graphql.Float},
			"average_confidence": &graphql.Field{Type: graphql.Float},
			"risk":               &graphql.Field{Type: risk},
			"recommendations":    &graphql.Field{Type: graphql.NewList(graphql.String)},
			"confidence":         &graphql.Field{Type: graphql.Float},
			"execution_time_ms":  &graphql.Field{Type: graphql.Float},
		},
	})
}

func createChangeInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ChangeInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"value":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"category":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"rule":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"dependencies": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
		},
	})
}

func createOverrideInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "OverrideInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"value": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
}
