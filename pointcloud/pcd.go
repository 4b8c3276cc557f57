package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = iota
	// PCDBinary binary format for pcd.
	PCDBinary
)

func colorToPCDInt(c color.NRGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func pcdIntToColor(c uint32) color.NRGBA {
	return color.NRGBA{uint8(0xFF & (c >> 16)), uint8(0xFF & (c >> 8)), uint8(0xFF & c), 255}
}

// ToPCD writes the cloud in the point cloud library format. Coordinates are written in meters.
func ToPCD(cloud *Cloud, out io.Writer, outputType PCDType) error {
	header := "VERSION .7\n"
	if cloud.HasColor() {
		header += "FIELDS x y z rgb\nSIZE 4 4 4 4\nTYPE F F F U\nCOUNT 1 1 1 1\n"
	} else {
		header += "FIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\n"
	}
	header += fmt.Sprintf("WIDTH %d\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS %d\n", cloud.Size(), cloud.Size())
	switch outputType {
	case PCDAscii:
		header += "DATA ascii\n"
	case PCDBinary:
		header += "DATA binary\n"
	default:
		return errors.Errorf("unsupported pcd output type %d", outputType)
	}
	if _, err := io.WriteString(out, header); err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	buf := make([]byte, 16)
	for i, p := range cloud.points {
		var err error
		switch outputType {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(p.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(p.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.Z)))
			if cloud.HasColor() {
				binary.LittleEndian.PutUint32(buf[12:], colorToPCDInt(cloud.colors[i]))
				_, err = w.Write(buf)
			} else {
				_, err = w.Write(buf[:12])
			}
		case PCDAscii:
			if cloud.HasColor() {
				_, err = fmt.Fprintf(w, "%f %f %f %d\n", p.X, p.Y, p.Z, colorToPCDInt(cloud.colors[i]))
			} else {
				_, err = fmt.Fprintf(w, "%f %f %f\n", p.X, p.Y, p.Z)
			}
		}
		if err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteToPCDFile writes the cloud to a binary pcd file.
func WriteToPCDFile(cloud *Cloud, fn string) (err error) {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return ToPCD(cloud, f, PCDBinary)
}

type pcdHeader struct {
	colored bool
	points  int
	data    PCDType
}

func readPCDHeader(r *bufio.Reader) (pcdHeader, error) {
	var header pcdHeader
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return header, errors.Wrap(err, "reading pcd header")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		field, value, _ := strings.Cut(line, " ")
		switch field {
		case "VERSION", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT":
		case "FIELDS":
			switch value {
			case "x y z":
			case "x y z rgb":
				header.colored = true
			default:
				return header, errors.Errorf("unsupported pcd fields %q", value)
			}
		case "POINTS":
			header.points, err = strconv.Atoi(value)
			if err != nil || header.points < 0 {
				return header, errors.Errorf("invalid POINTS %q", value)
			}
		case "DATA":
			switch value {
			case "ascii":
				header.data = PCDAscii
			case "binary":
				header.data = PCDBinary
			default:
				return header, errors.Errorf("unsupported pcd data %q", value)
			}
			return header, nil
		default:
			return header, errors.Errorf("unexpected pcd header line %q", line)
		}
	}
}

// ReadPCD reads an ascii or binary pcd stream with x y z or x y z rgb fields.
func ReadPCD(in io.Reader) (*Cloud, error) {
	r := bufio.NewReader(in)
	header, err := readPCDHeader(r)
	if err != nil {
		return nil, err
	}
	cloud := NewWithPrealloc(header.points, header.colored)
	appendPoint := func(p r3.Vector, c uint32) {
		cloud.points = append(cloud.points, p)
		if header.colored {
			cloud.colors = append(cloud.colors, pcdIntToColor(c))
		}
	}

	switch header.data {
	case PCDBinary:
		stride := 12
		if header.colored {
			stride = 16
		}
		buf := make([]byte, stride)
		for i := 0; i < header.points; i++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errors.Wrapf(err, "reading binary point %d", i)
			}
			p := r3.Vector{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))),
			}
			var c uint32
			if header.colored {
				c = binary.LittleEndian.Uint32(buf[12:])
			}
			appendPoint(p, c)
		}
	case PCDAscii:
		for i := 0; i < header.points; i++ {
			line, err := r.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && line != "") {
				return nil, errors.Wrapf(err, "reading ascii point %d", i)
			}
			tokens := strings.Fields(line)
			want := 3
			if header.colored {
				want = 4
			}
			if len(tokens) != want {
				return nil, errors.Errorf("point %d has %d values, expected %d", i, len(tokens), want)
			}
			var vals [3]float64
			for j := 0; j < 3; j++ {
				if vals[j], err = strconv.ParseFloat(tokens[j], 64); err != nil {
					return nil, errors.Wrapf(err, "point %d", i)
				}
			}
			var c uint64
			if header.colored {
				if c, err = strconv.ParseUint(tokens[3], 10, 32); err != nil {
					return nil, errors.Wrapf(err, "point %d color", i)
				}
			}
			appendPoint(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, uint32(c))
		}
	}
	return cloud, nil
}
