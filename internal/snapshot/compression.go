package snapshot

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"litestream-sidecar/internal/apperrors"
)

// Algorithm identifies a snapshot compression algorithm
type Algorithm string

const (
	AlgorithmNone Algorithm = "none"
	AlgorithmGzip Algorithm = "gzip"
	AlgorithmZstd Algorithm = "zstd"
	AlgorithmLZ4  Algorithm = "lz4"
)

// Compressor defines compression operations for snapshot archives
type Compressor interface {
	Compress(data []byte, level int) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	GetAlgorithm() Algorithm
	GetDefaultLevel() int
	GetMinLevel() int
	GetMaxLevel() int
}

// CompressionManager dispatches to the registered compressors
type CompressionManager struct {
	compressors map[Algorithm]Compressor
}

// NewCompressionManager creates a manager with all supported compressors
func NewCompressionManager() *CompressionManager {
	cm := &CompressionManager{
		compressors: make(map[Algorithm]Compressor),
	}

	cm.compressors[AlgorithmGzip] = &GzipCompressor{}
	cm.compressors[AlgorithmZstd] = &ZstdCompressor{}
	cm.compressors[AlgorithmLZ4] = &LZ4Compressor{}

	return cm
}

// Compress compresses data using the specified algorithm and level. An
// out-of-range level falls back to the algorithm default.
func (cm *CompressionManager) Compress(data []byte, algorithm Algorithm, level int) ([]byte, error) {
	if algorithm == AlgorithmNone {
		return data, nil
	}

	compressor, exists := cm.compressors[algorithm]
	if !exists {
		return nil, apperrors.NewSnapshotError(
			fmt.Sprintf("unsupported compression algorithm: %s", algorithm), nil)
	}

	if level < compressor.GetMinLevel() || level > compressor.GetMaxLevel() {
		level = compressor.GetDefaultLevel()
	}

	return compressor.Compress(data, level)
}

// Decompress decompresses data using the specified algorithm
func (cm *CompressionManager) Decompress(data []byte, algorithm Algorithm) ([]byte, error) {
	if algorithm == AlgorithmNone {
		return data, nil
	}

	compressor, exists := cm.compressors[algorithm]
	if !exists {
		return nil, apperrors.NewSnapshotError(
			fmt.Sprintf("unsupported compression algorithm: %s", algorithm), nil)
	}

	return compressor.Decompress(data)
}

// GetSupportedAlgorithms returns the registered algorithms
func (cm *CompressionManager) GetSupportedAlgorithms() []Algorithm {
	algorithms := make([]Algorithm, 0, len(cm.compressors))
	for algorithm := range cm.compressors {
		algorithms = append(algorithms, algorithm)
	}
	return algorithms
}

// ParseAlgorithm converts a config string into an Algorithm
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case AlgorithmNone, AlgorithmGzip, AlgorithmZstd, AlgorithmLZ4:
		return Algorithm(name), nil
	default:
		return "", apperrors.NewSnapshotError(
			fmt.Sprintf("unsupported compression algorithm: %s", name), nil)
	}
}

// GzipCompressor implements gzip compression
type GzipCompressor struct{}

func (gc *GzipCompressor) Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to create gzip writer", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, apperrors.NewSnapshotError("failed to write data to gzip writer", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewSnapshotError("failed to close gzip writer", err)
	}

	return buf.Bytes(), nil
}

func (gc *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to create gzip reader", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to decompress gzip data", err)
	}
	return decompressed, nil
}

func (gc *GzipCompressor) GetAlgorithm() Algorithm { return AlgorithmGzip }
func (gc *GzipCompressor) GetDefaultLevel() int    { return gzip.DefaultCompression }
func (gc *GzipCompressor) GetMinLevel() int        { return gzip.BestSpeed }
func (gc *GzipCompressor) GetMaxLevel() int        { return gzip.BestCompression }

// ZstdCompressor implements Zstandard compression
type ZstdCompressor struct{}

func (zc *ZstdCompressor) Compress(data []byte, level int) ([]byte, error) {
	encoderLevel := zstd.SpeedFastest
	switch {
	case level <= 1:
		encoderLevel = zstd.SpeedFastest
	case level <= 3:
		encoderLevel = zstd.SpeedDefault
	case level <= 6:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		encoderLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to create zstd encoder", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (zc *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to create zstd decoder", err)
	}
	defer decoder.Close()

	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to decompress zstd data", err)
	}
	return decompressed, nil
}

func (zc *ZstdCompressor) GetAlgorithm() Algorithm { return AlgorithmZstd }
func (zc *ZstdCompressor) GetDefaultLevel() int    { return 3 }
func (zc *ZstdCompressor) GetMinLevel() int        { return 1 }
func (zc *ZstdCompressor) GetMaxLevel() int        { return 9 }

// LZ4Compressor implements LZ4 compression
type LZ4Compressor struct{}

func (lc *LZ4Compressor) Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)

	// LZ4 has limited level options: fast mode by default, high
	// compression above level 6.
	if level > 6 {
		if err := writer.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
			return nil, apperrors.NewSnapshotError("failed to set LZ4 high compression", err)
		}
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, apperrors.NewSnapshotError("failed to write data to LZ4 writer", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewSnapshotError("failed to close LZ4 writer", err)
	}

	return buf.Bytes(), nil
}

func (lc *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewSnapshotError("failed to decompress LZ4 data", err)
	}
	return decompressed, nil
}

func (lc *LZ4Compressor) GetAlgorithm() Algorithm { return AlgorithmLZ4 }
func (lc *LZ4Compressor) GetDefaultLevel() int    { return 1 }
func (lc *LZ4Compressor) GetMinLevel() int        { return 1 }
func (lc *LZ4Compressor) GetMaxLevel() int        { return 12 }
