//go:build windows

package openvr

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation backed by openvr_api.dll and the flat IVRSystem function table

const (
	appTypeBackground = 3
	systemInterface   = "FnTable:IVRSystem_022"

	// Slots in VR_IVRSystem_FnTable.
	fnGetDeviceToAbsoluteTrackingPose = 11
	fnGetTrackedDeviceClass           = 19
	fnIsTrackedDeviceConnected        = 20
	fnGetStringTrackedDeviceProperty  = 27

	fnTableSize = 64
)

var (
	openvrAPI               = windows.NewLazyDLL("openvr_api.dll")
	procInitInternal2       = openvrAPI.NewProc("VR_InitInternal2")
	procGetGenericInterface = openvrAPI.NewProc("VR_GetGenericInterface")
	procShutdownInternal    = openvrAPI.NewProc("VR_ShutdownInternal")
)

// Runtime is a live connection to the OpenVR runtime.
type Runtime struct {
	mu    sync.Mutex
	table *[fnTableSize]uintptr
}

// Open initializes OpenVR as a background application. It returns
// ErrRuntimeMissing when the DLL is absent and ErrNotRunning when the runtime
// refuses the connection.
func Open() (*Runtime, error) {
	if err := openvrAPI.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeMissing, err)
	}
	if err := procInitInternal2.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeMissing, err)
	}

	var initErr int32
	procInitInternal2.Call(uintptr(unsafe.Pointer(&initErr)), appTypeBackground, 0)
	if initErr != 0 {
		return nil, fmt.Errorf("%w: VR_InitInternal2 error %d", ErrNotRunning, initErr)
	}

	name, err := windows.BytePtrFromString(systemInterface)
	if err != nil {
		return nil, err
	}
	table, _, _ := procGetGenericInterface.Call(uintptr(unsafe.Pointer(name)), uintptr(unsafe.Pointer(&initErr)))
	if initErr != 0 || table == 0 {
		procShutdownInternal.Call()
		return nil, fmt.Errorf("%w: %s unavailable (error %d)", ErrNotRunning, systemInterface, initErr)
	}

	return &Runtime{table: (*[fnTableSize]uintptr)(unsafe.Pointer(table))}, nil
}

// Close shuts the runtime connection down.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.table == nil {
		return nil
	}
	r.table = nil
	procShutdownInternal.Call()
	return nil
}

func (r *Runtime) call(slot int, args ...uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.table == nil {
		return 0
	}
	ret, _, _ := syscall.SyscallN(r.table[slot], args...)
	return ret
}

// DeviceToAbsoluteTrackingPose reads poses with zero prediction.
func (r *Runtime) DeviceToAbsoluteTrackingPose(origin TrackingOrigin, poses []TrackedDevicePose) {
	if len(poses) == 0 {
		return
	}
	// The float argument travels in XMM1, which the syscall trampoline fills
	// from the second integer slot. Zero bits are 0.0f.
	r.call(fnGetDeviceToAbsoluteTrackingPose,
		uintptr(origin),
		0,
		uintptr(unsafe.Pointer(&poses[0])),
		uintptr(len(poses)),
	)
}

// DeviceClass returns the class of the device in slot index.
func (r *Runtime) DeviceClass(index uint32) DeviceClass {
	return DeviceClass(int32(r.call(fnGetTrackedDeviceClass, uintptr(index))))
}

// IsDeviceConnected reports whether slot index holds a connected device.
func (r *Runtime) IsDeviceConnected(index uint32) bool {
	return byte(r.call(fnIsTrackedDeviceConnected, uintptr(index))) != 0
}

// StringProperty reads a string property, growing the buffer when the runtime
// reports it is too small.
func (r *Runtime) StringProperty(index uint32, prop DeviceProperty) (string, PropertyError) {
	buf := make([]byte, 256)
	for attempt := 0; attempt < 2; attempt++ {
		var propErr PropertyError
		size := uint32(r.call(fnGetStringTrackedDeviceProperty,
			uintptr(index),
			uintptr(prop),
			uintptr(unsafe.Pointer(&buf[0])),
			uintptr(len(buf)),
			uintptr(unsafe.Pointer(&propErr)),
		))
		if propErr == PropertyBufferTooSmall && int(size) > len(buf) {
			buf = make([]byte, size)
			continue
		}
		if propErr != PropertySuccess {
			return "", propErr
		}
		return windows.ByteSliceToString(buf), PropertySuccess
	}
	return "", PropertyBufferTooSmall
}
