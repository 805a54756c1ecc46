package permissions

// TrustSource queries and requests the OS input-monitoring trust grant.
type TrustSource interface {
	// Trusted is a non-prompting read.
	Trusted() bool
	// Prompt asks the OS to show its consent prompt. It does not wait for
	// the user.
	Prompt()
}

// TrustFuncs adapts function literals to TrustSource.
type TrustFuncs struct {
	TrustedFunc func() bool
	PromptFunc  func()
}

// Trusted calls TrustedFunc, treating a nil func as untrusted.
func (f TrustFuncs) Trusted() bool {
	if f.TrustedFunc == nil {
		return false
	}
	return f.TrustedFunc()
}

// Prompt calls PromptFunc when set.
func (f TrustFuncs) Prompt() {
	if f.PromptFunc != nil {
		f.PromptFunc()
	}
}

// WithEnvOverride lets AccessibilityEnv force the trust answer. Values that do
// not map to granted or denied defer to fallback.
func WithEnvOverride(lookup LookupEnvFunc, fallback TrustSource) TrustSource {
	if lookup == nil {
		lookup = lookupEnv
	}
	return TrustFuncs{
		TrustedFunc: func() bool {
			if value, ok := lookup(AccessibilityEnv); ok {
				switch interpretPermissionFlag("accessibility", value).Status {
				case StatusGranted:
					return true
				case StatusDenied:
					return false
				}
			}
			if fallback == nil {
				return false
			}
			return fallback.Trusted()
		},
		PromptFunc: func() {
			if fallback != nil {
				fallback.Prompt()
			}
		},
	}
}
