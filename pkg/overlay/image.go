package overlay

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// embeddedImage is one signature payload materialized as an image XObject.
type embeddedImage struct {
	ref    *types.IndirectRef
	name   string
	width  int
	height int
}

// signatureCache deduplicates signature embedding within a single render
// pass: identical payloads share one XObject no matter how many fields carry
// them. The cache is scoped to one Render call and never shared.
type signatureCache struct {
	images map[string]*embeddedImage
	next   int
}

func newSignatureCache() *signatureCache {
	return &signatureCache{images: make(map[string]*embeddedImage)}
}

// size reports how many unique payloads were embedded.
func (c *signatureCache) size() int { return len(c.images) }

// embed returns the XObject for payload, creating it on first sight. The
// cache key is the raw payload, so visually identical but byte-distinct
// signatures embed separately.
func (c *signatureCache) embed(pdfCtx *model.Context, payload []byte) (*embeddedImage, error) {
	key := string(payload)
	if img, ok := c.images[key]; ok {
		return img, nil
	}

	img, err := createImageXObject(pdfCtx, payload, c.next+1)
	if err != nil {
		return nil, err
	}
	c.next++
	c.images[key] = img
	return img, nil
}

// createImageXObject decodes the payload and registers it as a DeviceRGB
// image XObject. Alpha is flattened against white since overlay marks sit on
// top of the page anyway.
func createImageXObject(pdfCtx *model.Context, payload []byte, seq int) (*embeddedImage, error) {
	src, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("overlay: decode signature image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("overlay: signature image has empty bounds")
	}

	samples := make([]byte, 0, w*h*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			samples = append(samples,
				flattenChannel(r, a),
				flattenChannel(g, a),
				flattenChannel(b, a))
		}
	}

	sd, err := pdfCtx.NewStreamDictForBuf(samples)
	if err != nil {
		return nil, fmt.Errorf("overlay: new image stream: %w", err)
	}
	sd.Dict.InsertName("Type", "XObject")
	sd.Dict.InsertName("Subtype", "Image")
	sd.Dict.InsertInt("Width", w)
	sd.Dict.InsertInt("Height", h)
	sd.Dict.InsertName("ColorSpace", "DeviceRGB")
	sd.Dict.InsertInt("BitsPerComponent", 8)
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("overlay: encode image stream: %w", err)
	}

	ref, err := pdfCtx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("overlay: register image: %w", err)
	}

	return &embeddedImage{
		ref:    ref,
		name:   fmt.Sprintf("FFim%d", seq),
		width:  w,
		height: h,
	}, nil
}

// flattenChannel alpha-blends a premultiplied 16-bit channel over white and
// narrows it to 8 bits.
func flattenChannel(c, a uint32) byte {
	// RGBA() returns premultiplied values; white contributes (0xffff - a).
	v := c + (0xffff - a)
	if v > 0xffff {
		v = 0xffff
	}
	return byte(v >> 8)
}
