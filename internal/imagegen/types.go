package imagegen

// Angle identifies the camera angle a generated variation depicts. It is
// assigned from response-part ordering, not from any model metadata.
type Angle string

const (
	AngleFront Angle = "front"
	AngleSide  Angle = "side"
	AngleBack  Angle = "back"
)

// Variation is one generated preview image. Image is a data URL
// (data:<mime>;base64,<payload>) usable directly as an image source.
type Variation struct {
	Image string `json:"image"`
	Angle Angle  `json:"angle"`
}

// Renderer turns a style description into the instruction text sent to the
// model. Satisfied by *prompts.Prompts; tests substitute a stub.
type Renderer interface {
	FrontView(styleDescription string) string
	SideAndBackViews(styleDescription string) string
}
