package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

// WithCause sets the wrapped error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Retryable sets the retry strategy to backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	return b.WithRetry(RetryBackoff)
}

// NextPass marks the failure as retried by the following build pass.
func (b *ErrorBuilder) NextPass() *ErrorBuilder {
	return b.WithRetry(RetryNextPass)
}

// UserAction sets the retry strategy to require user action.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for common error patterns

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().UserAction()
}

// ScanError creates a content discovery error. Sub-tree failures are
// warnings; callers escalate root failures with Fatal.
func ScanError(message string) *ErrorBuilder {
	return NewError(CategoryScan, message).Warning().NextPass()
}

// ParseError creates a metadata parse error for a single unit.
func ParseError(message string) *ErrorBuilder {
	return NewError(CategoryParse, message).NextPass()
}

// RenderError creates a render failure for a single unit or aggregate.
func RenderError(message string) *ErrorBuilder {
	return NewError(CategoryRender, message).NextPass()
}

// StoreCorrupt reports an unreadable fingerprint store. The store is
// discarded and a full rebuild follows, so this is only a warning.
func StoreCorrupt(message string) *ErrorBuilder {
	return NewError(CategoryStore, message).Warning()
}

// StoreError creates a fatal fingerprint store error (commit failure).
func StoreError(message string) *ErrorBuilder {
	return NewError(CategoryStore, message).Fatal().Retryable()
}

// WriteError creates an output write failure.
func WriteError(message string) *ErrorBuilder {
	return NewError(CategoryWrite, message).NextPass()
}

// WatchError creates a watch subscription error.
func WatchError(message string) *ErrorBuilder {
	return NewError(CategoryWatch, message).Fatal()
}

// HistoryError creates a build history persistence error.
func HistoryError(message string) *ErrorBuilder {
	return NewError(CategoryHistory, message).Warning()
}

// NotifyError creates a notification publish error.
func NotifyError(message string) *ErrorBuilder {
	return NewError(CategoryNotify, message).Warning().Retryable()
}

// RuntimeError creates a runtime error.
func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
