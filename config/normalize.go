package config

// minFetchIntervalMs keeps the fetch loop from spinning on the target.
const minFetchIntervalMs = 50

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	o := &cfg.Observer

	if o.ProcessName == "" {
		o.ProcessName = DefaultProcessName
	}
	if o.AttachIntervalMs == 0 {
		o.AttachIntervalMs = DefaultAttachIntervalMs
	}
	if o.FetchIntervalMs == 0 {
		o.FetchIntervalMs = DefaultFetchIntervalMs
	}
	if o.FetchIntervalMs < minFetchIntervalMs {
		o.FetchIntervalMs = minFetchIntervalMs
	}
	if o.Publish.Path == "" {
		o.Publish.Path = DefaultPublishPath
	}
}
