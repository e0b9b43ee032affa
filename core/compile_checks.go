package core

var (
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ MetricsRecorder = NopMetricsRecorder{}

	_ TransformerRegistry = (*LeadTransformerRegistry)(nil)
	_ PermissionEvaluator = (*RolePermissionEvaluator)(nil)
)
