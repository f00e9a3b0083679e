package appdef

// CreatePayload builds the platform request for deploying an application
// that does not exist yet. Compose apps deploy as custom apps carrying the
// compose document; catalog exports are already in the platform's create
// shape and submit as-is.
func (d *Definition) CreatePayload() map[string]any {
	if d.Source == SourceCatalog {
		return d.Config
	}
	return map[string]any{
		"app_name":              d.Name,
		"custom_app":            true,
		"custom_compose_config": d.Config,
	}
}

// UpdatePayload builds the platform request for updating a deployed
// application to this definition.
func (d *Definition) UpdatePayload() map[string]any {
	if d.Source == SourceCatalog {
		return map[string]any{"values": d.DesiredConfig()}
	}
	return map[string]any{"custom_compose_config": d.Config}
}
