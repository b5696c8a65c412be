package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// caffe style means in BGR order, as used by keras resnet50 preprocess_input
var imageNetMeanBGR = [3]float32{103.939, 116.779, 123.68}

var boxColor = color.RGBA{R: 255, A: 255}

// DecodeImage decodes an upload and flattens it to opaque RGB
func DecodeImage(raw []byte) (*image.RGBA, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}
	return toRGB(img), nil
}

// toRGB drops the alpha channel and keeps the straight colour values,
// the same as converting an RGBA picture to RGB in PIL.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, 0xff
		}
	}
	return out
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DrawBoxes outlines every face with a closed red polygon. When label is
// set it is written above the first face.
func DrawBoxes(img image.Image, faces []Face, label string) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetColor(boxColor)
	dc.SetLineWidth(config.FaceBoxLineWidth)

	for _, face := range faces {
		if len(face.Vertices) == 0 {
			continue
		}
		dc.MoveTo(float64(face.Vertices[0].X), float64(face.Vertices[0].Y))
		for _, v := range face.Vertices[1:] {
			dc.LineTo(float64(v.X), float64(v.Y))
		}
		dc.ClosePath()
		dc.Stroke()
	}

	if label != "" && len(faces) > 0 && len(faces[0].Vertices) > 0 {
		top := faces[0].Vertices[0]
		dc.DrawStringAnchored(label, float64(top.X), float64(top.Y)-config.FaceBoxLineWidth, 0, 0)
	}
	return dc.Image()
}

// ExtractVertices returns the bounding polygon vertices of all faces, in order
func ExtractVertices(faces []Face) [][2]int {
	var out [][2]int
	for _, face := range faces {
		for _, v := range face.Vertices {
			out = append(out, [2]int{v.X, v.Y})
		}
	}
	return out
}

// FaceDiagnostics renders the likelihoods and bounds of each face as log lines
func FaceDiagnostics(faces []Face) []string {
	lines := []string{"Faces:"}
	for _, face := range faces {
		bounds := make([]string, 0, len(face.Vertices))
		for _, v := range face.Vertices {
			bounds = append(bounds, fmt.Sprintf("(%d,%d)", v.X, v.Y))
		}
		lines = append(lines,
			"anger: "+face.Anger.String(),
			"joy: "+face.Joy.String(),
			"surprise: "+face.Surprise.String(),
			"face bounds: "+strings.Join(bounds, ","),
		)
	}
	return lines
}

// Preprocess resizes to size x size with bicubic sampling, swaps RGB to BGR
// and subtracts the ImageNet channel means.
func Preprocess(img image.Image, size int) [][][]float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bicubic)
	b := resized.Bounds()

	out := make([][][]float32, size)
	for y := 0; y < size; y++ {
		out[y] = make([][]float32, size)
		for x := 0; x < size; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[y][x] = []float32{
				float32(bl>>8) - imageNetMeanBGR[0],
				float32(g>>8) - imageNetMeanBGR[1],
				float32(r>>8) - imageNetMeanBGR[2],
			}
		}
	}
	return out
}

// Flatten lays out an HxWxC instance as one NHWC batch
func Flatten(instance [][][]float32) []float32 {
	var out []float32
	for _, row := range instance {
		for _, px := range row {
			out = append(out, px...)
		}
	}
	return out
}
