package tts

// Options holds the synthesis parameters sent with every request. The
// synthesizer owns the authoritative copy; each stream receives an immutable
// snapshot at creation.
type Options struct {
	Model string
	Voice string
	Speed float64
}

// OptionsUpdate is a partial update of Options. A nil field means "leave
// unchanged"; a non-nil field replaces the stored value, including a pointer
// to the zero value. This keeps "not given" and "set to empty" distinct.
type OptionsUpdate struct {
	Model *string
	Voice *string
	Speed *float64
}

// String returns a pointer to s, for building an OptionsUpdate inline.
func String(s string) *string { return &s }

// Float64 returns a pointer to f, for building an OptionsUpdate inline.
func Float64(f float64) *float64 { return &f }

func (o *Options) apply(u OptionsUpdate) {
	if u.Model != nil {
		o.Model = *u.Model
	}
	if u.Voice != nil {
		o.Voice = *u.Voice
	}
	if u.Speed != nil {
		o.Speed = *u.Speed
	}
}
