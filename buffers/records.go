// Package buffers defines the storage buffer layout shared by the CPU
// orchestrator and the compute kernels.
//
// Every record has a fixed little-endian wire layout (std430 aligned) so the
// same buffers could be handed to a real GPU device unchanged. Kernels work on
// the typed slices; the encoding is only produced at the upload boundary.
package buffers

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Record sizes in bytes.
const (
	Vec4Size       = 16
	Float32Size    = 4
	MassParamsSize = 24
	SpringSize     = 8
	SimParamsSize  = 160
	AtomicsSize    = 16
)

// DeadLifetime is the lifetime value of a free slot.
const DeadLifetime float32 = -1

// Immortal is the lifetime given to cloth and chain masses, which never age.
const Immortal float32 = math.MaxFloat32

func putF32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func getF32(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}

// PutVec4 writes v into buf[0:16].
func PutVec4(v mgl32.Vec4, buf []byte) {
	putF32(buf[0:4], v[0])
	putF32(buf[4:8], v[1])
	putF32(buf[8:12], v[2])
	putF32(buf[12:16], v[3])
}

// GetVec4 reads a Vec4 from buf[0:16].
func GetVec4(buf []byte) mgl32.Vec4 {
	return mgl32.Vec4{getF32(buf[0:4]), getF32(buf[4:8]), getF32(buf[8:12]), getF32(buf[12:16])}
}

// PutFloat32 writes v into buf[0:4].
func PutFloat32(v float32, buf []byte) {
	putF32(buf, v)
}

// GetFloat32 reads a float32 from buf[0:4].
func GetFloat32(buf []byte) float32 {
	return getF32(buf)
}

// Direction indexes MassParams.Conn.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	NumDirections
)

// MassParams is the per-mass record of the cloth and chain variants.
// Size: 24 bytes.
type MassParams struct {
	IsFixed bool                    // offset  0: u32, fixed masses are never integrated
	Mass    float32                 // offset  4
	Conn    [NumDirections]Neighbor // offset  8: left, right, up, down as u32
}

// Size returns the wire size of the record.
func (m MassParams) Size() int { return MassParamsSize }

// Marshal serializes the record for upload.
func (m MassParams) Marshal() []byte {
	buf := make([]byte, MassParamsSize)
	PutMassParams(m, buf)
	return buf
}

// PutMassParams writes m into buf[0:24].
func PutMassParams(m MassParams, buf []byte) {
	var fixed uint32
	if m.IsFixed {
		fixed = 1
	}
	binary.LittleEndian.PutUint32(buf[0:4], fixed)
	putF32(buf[4:8], m.Mass)
	for d := range m.Conn {
		off := 8 + 4*d
		binary.LittleEndian.PutUint32(buf[off:off+4], m.Conn[d].Encode())
	}
}

// UnmarshalMassParams decodes a record written by PutMassParams.
func UnmarshalMassParams(buf []byte) MassParams {
	m := MassParams{
		IsFixed: binary.LittleEndian.Uint32(buf[0:4]) != 0,
		Mass:    getF32(buf[4:8]),
	}
	for d := range m.Conn {
		off := 8 + 4*d
		m.Conn[d] = DecodeNeighbor(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	return m
}

// InactiveIndex marks an unused spring pool slot.
const InactiveIndex int32 = -1

// Spring connects two masses. Both endpoints are InactiveIndex for an unused
// pool slot.
// Size: 8 bytes.
type Spring struct {
	MassOne int32
	MassTwo int32
}

// InactiveSpring is the padding value of a spring pool.
var InactiveSpring = Spring{MassOne: InactiveIndex, MassTwo: InactiveIndex}

// Active reports whether both endpoints are valid indices.
func (s Spring) Active() bool {
	return s.MassOne >= 0 && s.MassTwo >= 0
}

// Size returns the wire size of the record.
func (s Spring) Size() int { return SpringSize }

// Marshal serializes the record for upload.
func (s Spring) Marshal() []byte {
	buf := make([]byte, SpringSize)
	PutSpring(s, buf)
	return buf
}

// PutSpring writes s into buf[0:8].
func PutSpring(s Spring, buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(s.MassOne))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(s.MassTwo))
}

// UnmarshalSpring decodes a record written by PutSpring.
func UnmarshalSpring(buf []byte) Spring {
	return Spring{
		MassOne: int32(binary.LittleEndian.Uint32(buf[0:4])),
		MassTwo: int32(binary.LittleEndian.Uint32(buf[4:8])),
	}
}

// SimParams is the per-frame parameter block. The CPU rewrites it once per
// frame before any dispatch; kernels only read it.
// Size: 160 bytes.
type SimParams struct {
	GravityCenter mgl32.Vec4 // offset   0
	DomainMin     mgl32.Vec4 // offset  16
	DomainMax     mgl32.Vec4 // offset  32

	SimSpeed      float32 // offset  48
	GravityFactor float32 // offset  52
	SpawnRate     float32 // offset  56: effective rate, burst included
	Time          float32 // offset  60: elapsed simulated seconds

	Mode          uint32  // offset  64
	FireballPhase uint32  // offset  68
	DT            float32 // offset  72: sub-step, sim speed applied
	Seed          uint32  // offset  76: per-frame RNG key

	Stiffness  float32 // offset  80
	Damping    float32 // offset  84
	RestLength float32 // offset  88: chain spring rest length
	Bounce     float32 // offset  92

	SettleSpeed  float32 // offset  96
	MaxLifetime  float32 // offset 100
	GravityAccel float32 // offset 104: downward, along -Z
	Drag         float32 // offset 108

	SpawnSpeed     float32 // offset 112
	SpawnSpread    float32 // offset 116
	FireballRadius float32 // offset 120
	Buoyancy       float32 // offset 124

	FireballCenter mgl32.Vec4 // offset 128
	ClothSpacing   mgl32.Vec4 // offset 144: x = along thread, y = between threads
}

// Size returns the wire size of the record.
func (p SimParams) Size() int { return SimParamsSize }

// Marshal serializes the block for upload.
func (p SimParams) Marshal() []byte {
	buf := make([]byte, SimParamsSize)
	PutSimParams(p, buf)
	return buf
}

// PutSimParams writes p into buf[0:160].
func PutSimParams(p SimParams, buf []byte) {
	PutVec4(p.GravityCenter, buf[0:16])
	PutVec4(p.DomainMin, buf[16:32])
	PutVec4(p.DomainMax, buf[32:48])
	putF32(buf[48:52], p.SimSpeed)
	putF32(buf[52:56], p.GravityFactor)
	putF32(buf[56:60], p.SpawnRate)
	putF32(buf[60:64], p.Time)
	binary.LittleEndian.PutUint32(buf[64:68], p.Mode)
	binary.LittleEndian.PutUint32(buf[68:72], p.FireballPhase)
	putF32(buf[72:76], p.DT)
	binary.LittleEndian.PutUint32(buf[76:80], p.Seed)
	putF32(buf[80:84], p.Stiffness)
	putF32(buf[84:88], p.Damping)
	putF32(buf[88:92], p.RestLength)
	putF32(buf[92:96], p.Bounce)
	putF32(buf[96:100], p.SettleSpeed)
	putF32(buf[100:104], p.MaxLifetime)
	putF32(buf[104:108], p.GravityAccel)
	putF32(buf[108:112], p.Drag)
	putF32(buf[112:116], p.SpawnSpeed)
	putF32(buf[116:120], p.SpawnSpread)
	putF32(buf[120:124], p.FireballRadius)
	putF32(buf[124:128], p.Buoyancy)
	PutVec4(p.FireballCenter, buf[128:144])
	PutVec4(p.ClothSpacing, buf[144:160])
}

// UnmarshalSimParams decodes a block written by PutSimParams.
func UnmarshalSimParams(buf []byte) SimParams {
	return SimParams{
		GravityCenter:  GetVec4(buf[0:16]),
		DomainMin:      GetVec4(buf[16:32]),
		DomainMax:      GetVec4(buf[32:48]),
		SimSpeed:       getF32(buf[48:52]),
		GravityFactor:  getF32(buf[52:56]),
		SpawnRate:      getF32(buf[56:60]),
		Time:           getF32(buf[60:64]),
		Mode:           binary.LittleEndian.Uint32(buf[64:68]),
		FireballPhase:  binary.LittleEndian.Uint32(buf[68:72]),
		DT:             getF32(buf[72:76]),
		Seed:           binary.LittleEndian.Uint32(buf[76:80]),
		Stiffness:      getF32(buf[80:84]),
		Damping:        getF32(buf[84:88]),
		RestLength:     getF32(buf[88:92]),
		Bounce:         getF32(buf[92:96]),
		SettleSpeed:    getF32(buf[96:100]),
		MaxLifetime:    getF32(buf[100:104]),
		GravityAccel:   getF32(buf[104:108]),
		Drag:           getF32(buf[108:112]),
		SpawnSpeed:     getF32(buf[112:116]),
		SpawnSpread:    getF32(buf[116:120]),
		FireballRadius: getF32(buf[120:124]),
		Buoyancy:       getF32(buf[124:128]),
		FireballCenter: GetVec4(buf[128:144]),
		ClothSpacing:   GetVec4(buf[144:160]),
	}
}

// Atomics holds the counters kernels mutate with atomic operations. Kernels
// must only touch these fields through sync/atomic.
// Size: 16 bytes.
type Atomics struct {
	NumDead     int32 // offset  0: free slots
	SpawnBudget int32 // offset  4: spawn tickets left this frame, may go negative
	Spawned     int32 // offset  8: cumulative
	Killed      int32 // offset 12: cumulative
}

// Size returns the wire size of the record.
func (a Atomics) Size() int { return AtomicsSize }

// Marshal serializes the counters.
func (a Atomics) Marshal() []byte {
	buf := make([]byte, AtomicsSize)
	PutAtomics(a, buf)
	return buf
}

// PutAtomics writes a into buf[0:16].
func PutAtomics(a Atomics, buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(a.NumDead))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(a.SpawnBudget))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(a.Spawned))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(a.Killed))
}

// UnmarshalAtomics decodes counters written by PutAtomics.
func UnmarshalAtomics(buf []byte) Atomics {
	return Atomics{
		NumDead:     int32(binary.LittleEndian.Uint32(buf[0:4])),
		SpawnBudget: int32(binary.LittleEndian.Uint32(buf[4:8])),
		Spawned:     int32(binary.LittleEndian.Uint32(buf[8:12])),
		Killed:      int32(binary.LittleEndian.Uint32(buf[12:16])),
	}
}
