package tcltk

// Command tags. A tag names the kind of command an option list is built
// for; the capability interfaces it implements decide which option
// constructors accept it. Wrapper packages may declare their own tags.
type (
	Button struct{}
	Label  struct{}
	Frame  struct{}
	Scale  struct{}
)

// Capabilities. Each marker method declares one family of options legal
// for a tag.
type (
	TextCapable    interface{ TextOption() }
	CommandCapable interface{ CommandOption() }
	SizeCapable    interface{ SizeOption() }
	ReliefCapable  interface{ ReliefOption() }
	ColorCapable   interface{ ColorOption() }
)

func (Button) TextOption()    {}
func (Button) CommandOption() {}
func (Button) SizeOption()    {}
func (Button) ReliefOption()  {}
func (Button) ColorOption()   {}

func (Label) TextOption()   {}
func (Label) SizeOption()   {}
func (Label) ReliefOption() {}
func (Label) ColorOption()  {}

func (Frame) SizeOption()   {}
func (Frame) ReliefOption() {}
func (Frame) ColorOption()  {}

func (Scale) CommandOption() {}
func (Scale) SizeOption()    {}
func (Scale) ReliefOption()  {}
func (Scale) ColorOption()   {}

// Text is the -text option.
func Text[C TextCapable](s string) Opt[C] { return NewOpt[C]("text", s) }

// CommandScript is the -command option. script is usually a *Callback or
// a Command.
func CommandScript[C CommandCapable](script any) Opt[C] { return NewOpt[C]("command", script) }

// Width is the -width option.
func Width[C SizeCapable](v int) Opt[C] { return NewOpt[C]("width", v) }

// Height is the -height option.
func Height[C SizeCapable](v int) Opt[C] { return NewOpt[C]("height", v) }

func Background[C ColorCapable](color string) Opt[C] { return NewOpt[C]("background", color) }
func Foreground[C ColorCapable](color string) Opt[C] { return NewOpt[C]("foreground", color) }

// ReliefOpt is the -relief option.
func ReliefOpt[C ReliefCapable](r Relief) Opt[C] { return NewOpt[C]("relief", r) }

// AnchorOpt is the -anchor option.
func AnchorOpt[C TextCapable](a Anchor) Opt[C] { return NewOpt[C]("anchor", a) }

// Relief is a 3-D border style.
type Relief string

const (
	ReliefFlat   Relief = "flat"
	ReliefGroove Relief = "groove"
	ReliefRaised Relief = "raised"
	ReliefRidge  Relief = "ridge"
	ReliefSolid  Relief = "solid"
	ReliefSunken Relief = "sunken"
)

var reliefs = []Relief{ReliefFlat, ReliefGroove, ReliefRaised, ReliefRidge, ReliefSolid, ReliefSunken}

func (r *Relief) DecodeValue(v *Obj) error {
	got, err := DecodeEnum(v, "relief", reliefs...)
	if err != nil {
		return err
	}
	*r = got
	return nil
}

// Anchor is a compass position.
type Anchor string

const (
	AnchorN      Anchor = "n"
	AnchorNE     Anchor = "ne"
	AnchorE      Anchor = "e"
	AnchorSE     Anchor = "se"
	AnchorS      Anchor = "s"
	AnchorSW     Anchor = "sw"
	AnchorW      Anchor = "w"
	AnchorNW     Anchor = "nw"
	AnchorCenter Anchor = "center"
)

var anchors = []Anchor{AnchorN, AnchorNE, AnchorE, AnchorSE, AnchorS, AnchorSW, AnchorW, AnchorNW, AnchorCenter}

func (a *Anchor) DecodeValue(v *Obj) error {
	got, err := DecodeEnum(v, "anchor", anchors...)
	if err != nil {
		return err
	}
	*a = got
	return nil
}

// EvalAs evaluates cmd and decodes the result into T. It returns an
// *InterpError if evaluation fails, or any error [Decode] returns.
func EvalAs[T any](i *Interp, cmd Command) (T, error) {
	v, err := i.Evaluate(cmd)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](v)
}

// Configure runs "path configure ?-option value ...?".
func Configure[C any](i *Interp, path string, opts OptionList[C]) error {
	return i.Run(Cmd(path, "configure", opts))
}

// Cget runs "path cget -option" and decodes the result into T.
func Cget[T any](i *Interp, path, option string) (T, error) {
	return EvalAs[T](i, Cmd(path, "cget", "-"+option))
}
