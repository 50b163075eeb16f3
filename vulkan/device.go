// Package vulkan implements gpu.Device on top of vkngwrapper and an SDL2
// window. One Device drives one window.
package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/gputriangle/gpu"
)

const MaxFramesInFlight = 2

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

type Options struct {
	ApplicationName string
	// Validation enables the Khronos validation layer and routes its
	// messages to Logger.
	Validation bool
	Logger     *logrus.Entry
}

type queueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *queueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Device is a gpu.Device backed by a Vulkan logical device.
type Device struct {
	log    *logrus.Entry
	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surfaceHandle    khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	queueFamilies  queueFamilyIndices
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
	commandPool    core1_0.CommandPool

	swapchainExtension khr_swapchain.ExtensionDriver
	surface            *Surface

	renderPasses map[renderPassKey]core1_0.RenderPass
	submissions  []*submission
}

var _ gpu.Device = (*Device)(nil)

// Open creates a Vulkan instance, a presentation surface for window and a
// logical device able to render to it. The window must have been created
// with sdl.WINDOW_VULKAN.
func Open(window *sdl.Window, opts Options) (device *Device, err error) {
	if opts.Logger == nil {
		opts.Logger = gpu.Logger()
	}
	if opts.ApplicationName == "" {
		opts.ApplicationName = "gputriangle"
	}

	d := &Device{
		log:          opts.Logger.WithField("component", "vulkan"),
		window:       window,
		renderPasses: map[renderPassKey]core1_0.RenderPass{},
	}
	defer func() {
		if err != nil {
			d.Destroy()
			err = errors.Mark(err, gpu.ErrPlatformInit)
		}
	}()

	d.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	if err = d.createInstance(opts); err != nil {
		return nil, err
	}
	if opts.Validation {
		if err = d.setupDebugMessenger(); err != nil {
			return nil, err
		}
	}
	if err = d.createSurface(); err != nil {
		return nil, err
	}
	if err = d.pickPhysicalDevice(); err != nil {
		return nil, err
	}
	if err = d.createLogicalDevice(); err != nil {
		return nil, err
	}
	if err = d.createCommandPool(); err != nil {
		return nil, err
	}

	d.log.WithFields(logrus.Fields{
		"graphicsFamily": *d.queueFamilies.GraphicsFamily,
		"presentFamily":  *d.queueFamilies.PresentFamily,
		"validation":     opts.Validation,
	}).Info("GPU device initialized")
	return d, nil
}

func (d *Device) createInstance(opts Options) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "gputriangle",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := d.window.VulkanGetInstanceExtensions()
	extensions, _, err := d.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		if _, hasExt := extensions[ext]; !hasExt {
			return errors.Newf("create instance: missing extension %s required by SDL", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if opts.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	if _, ok := extensions[khr_portability_enumeration.ExtensionName]; ok {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.Validation {
		layers, _, err := d.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}

		for _, layer := range validationLayers {
			if _, ok := layers[layer]; !ok {
				return errors.WithHint(
					errors.Newf("create instance: validation layer %s not available", layer),
					"install the LunarG Vulkan SDK or run without validation")
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		instanceOptions.Next = d.debugMessengerOptions()
	}

	d.instanceDriver, _, err = d.globalDriver.CreateInstance(nil, instanceOptions)
	return errors.Wrap(err, "create instance")
}

func (d *Device) createSurface() error {
	d.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(d.instanceDriver.Instance(), d.surfaceExtension, d.window)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}

	d.surfaceHandle = surface
	return nil
}

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, _, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range physicalDevices {
		if indices, ok := d.isDeviceSuitable(device); ok {
			d.physicalDevice = device
			d.queueFamilies = indices
			return nil
		}
	}

	return errors.New("no GPU supports rendering to this window")
}

func (d *Device) isDeviceSuitable(device core1_0.PhysicalDevice) (queueFamilyIndices, bool) {
	indices, err := d.findQueueFamilies(device)
	if err != nil || !indices.IsComplete() {
		return indices, false
	}

	if !d.checkDeviceExtensionSupport(device) {
		return indices, false
	}

	support, err := d.querySwapchainSupport(device)
	if err != nil {
		return indices, false
	}
	return indices, len(support.Formats) > 0 && len(support.PresentModes) > 0
}

func (d *Device) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false
	}

	for _, extension := range deviceExtensions {
		if _, ok := extensions[extension]; !ok {
			return false
		}
	}
	return true
}

func (d *Device) findQueueFamilies(device core1_0.PhysicalDevice) (queueFamilyIndices, error) {
	indices := queueFamilyIndices{}
	queueFamilies := d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceSupport(d.surfaceHandle, device, queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func (d *Device) createLogicalDevice() error {
	indices := d.queueFamilies

	uniqueQueueFamilies := []int{*indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *indices.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := append([]string(nil), deviceExtensions...)

	// Required on MoltenVK.
	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}
	if _, ok := extensions[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.deviceDriver, _, err = d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	d.graphicsQueue = d.deviceDriver.GetQueue(*indices.GraphicsFamily, 0)
	d.presentQueue = d.deviceDriver.GetQueue(*indices.PresentFamily, 0)
	d.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(d.deviceDriver)
	return nil
}

func (d *Device) createCommandPool() error {
	pool, _, err := d.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *d.queueFamilies.GraphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	d.commandPool = pool
	return nil
}

func (d *Device) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := d.instanceDriver.GetPhysicalDeviceMemoryProperties(d.physicalDevice)
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type with properties %v", properties)
}

// WaitIdle blocks until the GPU has finished all submitted work.
func (d *Device) WaitIdle() error {
	if d.deviceDriver == nil {
		return nil
	}
	_, err := d.deviceDriver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

// Destroy waits for the GPU and destroys the device, surface and instance.
// The window must have been released first. It is safe to call on a
// partially opened device.
func (d *Device) Destroy() {
	if d.deviceDriver != nil {
		if err := d.WaitIdle(); err != nil {
			d.log.WithError(err).Warn("Destroying device without idle wait")
		}

		if d.surface != nil {
			d.log.Warn("Window still claimed at device teardown")
			d.ReleaseWindow(d.surface)
		}

		for _, s := range d.submissions {
			if s.user {
				d.log.Warn("Fence not released before device teardown")
			}
			d.retire(s)
		}
		d.submissions = nil

		for key, renderPass := range d.renderPasses {
			d.deviceDriver.DestroyRenderPass(renderPass, nil)
			delete(d.renderPasses, key)
		}

		if d.commandPool.Initialized() {
			d.deviceDriver.DestroyCommandPool(d.commandPool, nil)
			d.commandPool = core1_0.CommandPool{}
		}

		d.deviceDriver.DestroyDevice(nil)
		d.deviceDriver = nil
	}

	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
		d.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if d.surfaceHandle.Initialized() {
		d.surfaceExtension.DestroySurface(d.surfaceHandle, nil)
		d.surfaceHandle = khr_surface.Surface{}
	}

	if d.instanceDriver != nil {
		d.instanceDriver.DestroyInstance(nil)
		d.instanceDriver = nil
	}
}
