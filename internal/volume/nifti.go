package volume

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/KyungWonPark/nifti"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// NIfTI-1 datatype codes understood by Load.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
)

const (
	niftiHeaderSize = 348
	niftiVoxOffset  = 352
)

// Header is the part of a NIfTI-1 header the pipeline needs.
type Header struct {
	Path     string
	Shape    []int
	Affine   [4][4]float64
	Datatype int16
	Slope    float64
	Inter    float64
}

// Timepoints is 1 for a 3-D image.
func (h Header) Timepoints() int {
	if len(h.Shape) < 4 {
		return 1
	}
	return h.Shape[3]
}

// ReadHeader reads and validates only the header of a .nii or .nii.gz file.
func ReadHeader(path string) (Header, error) {
	if _, err := os.Stat(path); err != nil {
		return Header{}, pfx.Err(err)
	}

	raw, err := safelyLoadHeader(path)
	if err != nil {
		return Header{}, pfx.Err(fmt.Errorf("%s: %v", path, err))
	}

	return parseHeader(path, raw)
}

// Load reads a 3-D or 4-D NIfTI-1 image into memory as float64.
func Load(path string) (*Volume, error) {
	hdr, err := ReadHeader(path)
	if err != nil {
		return nil, err
	}

	convert, err := converterFor(hdr.Datatype)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %v", path, err))
	}

	img, err := safelyLoadImage(path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %v", path, err))
	}

	vol := New(hdr.Shape, hdr.Affine)
	vol.Path = path

	if err := safelyFill(img, vol, convert); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %v", path, err))
	}

	if hdr.Slope != 0 && !(hdr.Slope == 1 && hdr.Inter == 0) {
		for i, x := range vol.Data {
			vol.Data[i] = x*hdr.Slope + hdr.Inter
		}
	}

	log.WithFields(log.Fields{
		"path":     path,
		"shape":    hdr.Shape,
		"datatype": hdr.Datatype,
	}).Debug("Loaded volume")

	return vol, nil
}

// Save writes v as a gzip-compressed float32 NIfTI-1 file with the affine
// stored as the sform. The written path always ends in ".nii.gz" and is
// returned.
func Save(v *Volume, path string) (string, error) {
	base := strings.TrimSuffix(path, ".gz")
	if !strings.HasSuffix(base, ".nii") {
		base += ".nii"
	}

	if dir := filepath.Dir(base); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", pfx.Err(err)
		}
	}

	if err := safelySave(v, base); err != nil {
		return "", pfx.Err(fmt.Errorf("%s: %v", base+".gz", err))
	}

	log.WithField("path", base+".gz").Debug("Saved volume")

	return base + ".gz", nil
}

func parseHeader(path string, raw nifti.Nifti1Header) (Header, error) {
	if raw.SizeofHdr != niftiHeaderSize {
		return Header{}, pfx.Err(fmt.Errorf("%s: header size %d, not a little-endian NIfTI-1 file", path, raw.SizeofHdr))
	}
	if raw.Magic != [4]byte{'n', '+', '1', 0} {
		return Header{}, pfx.Err(fmt.Errorf("%s: header and data must be stored in a single .nii file", path))
	}

	ndim := int(raw.Dim[0])
	if ndim < 1 || ndim > 7 {
		return Header{}, pfx.Err(fmt.Errorf("%s: dim[0]=%d is not in [1, 7]", path, ndim))
	}

	shape := []int{1, 1, 1}
	for i := 1; i <= ndim && i <= 3; i++ {
		shape[i-1] = int(raw.Dim[i])
	}
	if ndim >= 4 {
		for i := 5; i <= ndim; i++ {
			if raw.Dim[i] > 1 {
				return Header{}, pfx.Err(fmt.Errorf("%s: %d-D images are not supported", path, ndim))
			}
		}
		shape = append(shape, int(raw.Dim[4]))
	}
	for _, s := range shape {
		if s <= 0 {
			return Header{}, pfx.Err(fmt.Errorf("%s: invalid dimensions %v", path, raw.Dim))
		}
	}

	return Header{
		Path:     path,
		Shape:    shape,
		Affine:   affineFromHeader(raw),
		Datatype: raw.Datatype,
		Slope:    float64(raw.SclSlope),
		Inter:    float64(raw.SclInter),
	}, nil
}

// affineFromHeader prefers the sform, then the qform, then a scaling-only
// affine built from pixdim.
func affineFromHeader(h nifti.Nifti1Header) [4][4]float64 {
	var a [4][4]float64
	a[3][3] = 1

	switch {
	case h.SformCode > 0:
		for c := 0; c < 4; c++ {
			a[0][c] = float64(h.SrowX[c])
			a[1][c] = float64(h.SrowY[c])
			a[2][c] = float64(h.SrowZ[c])
		}

	case h.QformCode > 0:
		b, c, d := float64(h.QuaternB), float64(h.QuaternC), float64(h.QuaternD)
		aa := 1 - (b*b + c*c + d*d)
		var q0 float64
		if aa < 1e-7 {
			// 180 degree rotation, renormalise (b, c, d)
			n := 1 / math.Sqrt(b*b+c*c+d*d)
			b, c, d = b*n, c*n, d*n
		} else {
			q0 = math.Sqrt(aa)
		}

		dx, dy, dz := pixdimOr1(h.Pixdim[1]), pixdimOr1(h.Pixdim[2]), pixdimOr1(h.Pixdim[3])
		qfac := 1.0
		if h.Pixdim[0] < 0 {
			qfac = -1
		}
		dz *= qfac

		a[0][0] = (q0*q0 + b*b - c*c - d*d) * dx
		a[0][1] = 2 * (b*c - q0*d) * dy
		a[0][2] = 2 * (b*d + q0*c) * dz
		a[1][0] = 2 * (b*c + q0*d) * dx
		a[1][1] = (q0*q0 + c*c - b*b - d*d) * dy
		a[1][2] = 2 * (c*d - q0*b) * dz
		a[2][0] = 2 * (b*d - q0*c) * dx
		a[2][1] = 2 * (c*d + q0*b) * dy
		a[2][2] = (q0*q0 + d*d - c*c - b*b) * dz
		a[0][3] = float64(h.QoffsetX)
		a[1][3] = float64(h.QoffsetY)
		a[2][3] = float64(h.QoffsetZ)

	default:
		a[0][0] = pixdimOr1(h.Pixdim[1])
		a[1][1] = pixdimOr1(h.Pixdim[2])
		a[2][2] = pixdimOr1(h.Pixdim[3])
	}

	return a
}

func pixdimOr1(p float32) float64 {
	if p <= 0 {
		return 1
	}
	return float64(p)
}

// converterFor undoes the nifti library's decoding, which reads every 1- and
// 2-byte type as unsigned and every 4-byte type as float32 bits.
func converterFor(datatype int16) (func(float32) float64, error) {
	switch datatype {
	case dtUint8, dtUint16, dtFloat32, dtFloat64:
		return func(x float32) float64 { return float64(x) }, nil
	case dtInt8:
		return func(x float32) float64 {
			if x > math.MaxInt8 {
				return float64(x) - 256
			}
			return float64(x)
		}, nil
	case dtInt16:
		return func(x float32) float64 {
			if x > math.MaxInt16 {
				return float64(x) - 65536
			}
			return float64(x)
		}, nil
	case dtInt32:
		return func(x float32) float64 { return float64(int32(math.Float32bits(x))) }, nil
	case dtUint32:
		return func(x float32) float64 { return float64(math.Float32bits(x)) }, nil
	}
	return nil, fmt.Errorf("unsupported NIfTI datatype %d", datatype)
}

// The nifti library panics on malformed input instead of returning errors, so
// every call into it is made behind recover.

func safelyLoadHeader(path string) (hdr nifti.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	hdr.LoadHeader(path)

	return
}

func safelyLoadImage(path string) (img *nifti.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	img = new(nifti.Nifti1Image)
	img.LoadImage(path, true)

	return
}

func safelyFill(img *nifti.Nifti1Image, vol *Volume, convert func(float32) float64) (err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("image data is truncated or unreadable: %v", panicErr)
		}
	}()

	nx, ny, nz, nt := vol.Shape[0], vol.Shape[1], vol.Shape[2], vol.Timepoints()
	i := 0
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					vol.Data[i] = convert(img.GetAt(uint32(x), uint32(y), uint32(z), uint32(t)))
					i++
				}
			}
		}
	}

	return nil
}

func safelySave(v *Volume, base string) (err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	nx, ny, nz, nt := v.Shape[0], v.Shape[1], v.Shape[2], v.Timepoints()
	img := nifti.NewImg(nx, ny, nz, nt)

	hdr := img.GetHeader()
	hdr.Dim = [8]int16{int16(v.NDim()), int16(nx), int16(ny), int16(nz), int16(nt), 1, 1, 1}
	hdr.Datatype = dtFloat32
	hdr.Bitpix = 32

	sizes := v.VoxelSizes()
	hdr.Pixdim = [8]float32{1, float32(sizes[0]), float32(sizes[1]), float32(sizes[2]), 1, 1, 1, 1}
	hdr.VoxOffset = niftiVoxOffset
	hdr.SclSlope = 1
	hdr.SclInter = 0
	hdr.CalMax = 0
	hdr.CalMin = 0

	hdr.QformCode = 0
	hdr.QuaternB, hdr.QuaternC, hdr.QuaternD = 0, 0, 0
	hdr.QoffsetX, hdr.QoffsetY, hdr.QoffsetZ = 0, 0, 0
	hdr.SformCode = 2
	for c := 0; c < 4; c++ {
		hdr.SrowX[c] = float32(v.Affine[0][c])
		hdr.SrowY[c] = float32(v.Affine[1][c])
		hdr.SrowZ[c] = float32(v.Affine[2][c])
	}
	copy(hdr.Descrip[:], "statespace")
	img.SetNewHeader(hdr)

	i := 0
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					img.SetAt(uint32(x), uint32(y), uint32(z), uint32(t), float32(v.Data[i]))
					i++
				}
			}
		}
	}

	img.Save(base)

	return nil
}
