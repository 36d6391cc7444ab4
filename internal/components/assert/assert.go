package assert

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

// Range panics unless lo < hi.
func Range(lo, hi int) {
	if lo >= hi {
		panic("expected a non-empty range")
	}
}
