package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ImageInfo describes one image XObject in enumeration order.
type ImageInfo struct {
	ID           int    `json:"id"`
	PageNumber   int    `json:"page_number"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	ObjectNumber int    `json:"object_number"`
	ResourceName string `json:"resource_name"`
}

// eachImage visits image XObjects page by page, in resource-name order
// within a page. The ordinal passed in info.ID is the identity used by
// remediation. Returning true from visit stops the scan.
func eachImage(ctx context.Context, pctx *model.Context, visit func(info ImageInfo, sd *types.StreamDict) bool) error {
	if err := pctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("page count: %w", err)
	}

	id := 0
	for page := 1; page <= pctx.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, _, attrs, err := pctx.PageDict(page, false)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		if attrs == nil || attrs.Resources == nil {
			continue
		}
		xobjects, err := pctx.DereferenceDict(attrs.Resources["XObject"])
		if err != nil || xobjects == nil {
			continue
		}

		names := make([]string, 0, len(xobjects))
		for name := range xobjects {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ref, ok := xobjects[name].(types.IndirectRef)
			if !ok {
				continue
			}
			sd, _, err := pctx.DereferenceStreamDict(ref)
			if err != nil || sd == nil {
				continue
			}
			if st := sd.Subtype(); st == nil || *st != "Image" {
				continue
			}
			info := ImageInfo{
				ID:           id,
				PageNumber:   page,
				Width:        intEntry(pctx, sd.Dict, "Width"),
				Height:       intEntry(pctx, sd.Dict, "Height"),
				Format:       sourceFormat(sd),
				ObjectNumber: ref.ObjectNumber.Value(),
				ResourceName: name,
			}
			if visit(info, sd) {
				return nil
			}
			id++
		}
	}
	return nil
}

// Images lists every image XObject of the document.
func (d *Document) Images(ctx context.Context) ([]ImageInfo, error) {
	images := []ImageInfo{}
	err := eachImage(ctx, d.ctx, func(info ImageInfo, _ *types.StreamDict) bool {
		images = append(images, info)
		return false
	})
	return images, err
}

// ImagePNG returns the image with the given ordinal encoded as PNG. A
// positive maxDim scales the image down so neither side exceeds it.
func (d *Document) ImagePNG(ctx context.Context, id, maxDim int) ([]byte, ImageInfo, error) {
	var (
		found ImageInfo
		sd    *types.StreamDict
	)
	err := eachImage(ctx, d.ctx, func(info ImageInfo, s *types.StreamDict) bool {
		if info.ID == id {
			found, sd = info, s
			return true
		}
		return false
	})
	if err != nil {
		return nil, ImageInfo{}, err
	}
	if sd == nil {
		return nil, ImageInfo{}, fmt.Errorf("%w: id %d", accessibility.ErrImageNotFound, id)
	}

	img, err := pdfcpu.ExtractImage(d.ctx, sd, false, found.ResourceName, found.ObjectNumber, false)
	if err != nil {
		return nil, found, fmt.Errorf("extract image %d: %w", id, err)
	}
	if img == nil {
		return nil, found, errors.New("extract image: no image data")
	}
	data, err := toPNG(img.Reader, img.FileType, maxDim)
	if err != nil {
		return nil, found, fmt.Errorf("image %d: %w", id, err)
	}
	return data, found, nil
}

func intEntry(pctx *model.Context, d types.Dict, key string) int {
	o, err := pctx.Dereference(d[key])
	if err != nil {
		return 0
	}
	switch v := o.(type) {
	case types.Integer:
		return v.Value()
	case types.Float:
		return int(v.Value())
	}
	return 0
}

// sourceFormat names the encoding the image is stored with. Images without
// a lossy or bilevel codec are served as PNG.
func sourceFormat(sd *types.StreamDict) string {
	if len(sd.FilterPipeline) == 0 {
		return "PNG"
	}
	switch sd.FilterPipeline[len(sd.FilterPipeline)-1].Name {
	case "DCTDecode":
		return "JPEG"
	case "JPXDecode":
		return "JPEG2000"
	case "CCITTFaxDecode":
		return "CCITT"
	case "JBIG2Decode":
		return "JBIG2"
	}
	return "PNG"
}

// ListImages opens path and lists its images.
func (o *Opener) ListImages(ctx context.Context, path string) ([]ImageInfo, error) {
	doc, err := o.OpenDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.Images(ctx)
}

// RenderImage opens path and returns image id as PNG.
func (o *Opener) RenderImage(ctx context.Context, path string, id, maxDim int) ([]byte, ImageInfo, error) {
	doc, err := o.OpenDocument(ctx, path)
	if err != nil {
		return nil, ImageInfo{}, err
	}
	defer doc.Close()
	return doc.ImagePNG(ctx, id, maxDim)
}
