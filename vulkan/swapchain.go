package vulkan

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/gputriangle/gpu"
)

type swapchainSupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

func (d *Device) querySwapchainSupport(device core1_0.PhysicalDevice) (swapchainSupportDetails, error) {
	var details swapchainSupportDetails
	var err error

	details.Capabilities, _, err = d.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.surfaceHandle, device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surfaceHandle, device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surfaceHandle, device)
	return details, err
}

// Surface is a window claimed for presentation. It owns the swapchain and
// everything sized by it.
type Surface struct {
	label  string
	window *sdl.Window

	swapchain     khr_swapchain.Swapchain
	format        core1_0.Format
	textureFormat gpu.TextureFormat
	extent        core1_0.Extent2D
	images        []core1_0.Image
	views         []core1_0.ImageView
	framebuffers  map[renderPassKey][]core1_0.Framebuffer

	imageAvailable []core1_0.Semaphore
	renderFinished []core1_0.Semaphore
	frames         [MaxFramesInFlight]*submission
	imagesInFlight []*submission
	currentFrame   int
}

func (s *Surface) Label() string { return s.label }

// swapchainTexture is one swapchain image, valid until the command buffer
// that acquired it is submitted.
type swapchainTexture struct {
	surface *Surface
	index   int
}

func (t *swapchainTexture) Label() string {
	return fmt.Sprintf("%s image %d", t.surface.label, t.index)
}

func (t *swapchainTexture) Format() gpu.TextureFormat { return t.surface.textureFormat }

// ClaimWindow creates the swapchain for the window the device was opened
// with. The returned surface is passed to the renderer and released with
// ReleaseWindow before the device is destroyed.
func (d *Device) ClaimWindow(window *sdl.Window) (gpu.Surface, error) {
	if window != d.window {
		return nil, errors.Mark(errors.New("window was not opened with this device"), gpu.ErrPlatformInit)
	}
	if d.surface != nil {
		return nil, errors.Mark(errors.New("window is already claimed"), gpu.ErrPlatformInit)
	}

	s := &Surface{
		label:        window.GetTitle(),
		window:       window,
		framebuffers: map[renderPassKey][]core1_0.Framebuffer{},
	}
	if err := d.createSwapchain(s); err != nil {
		d.destroySwapchain(s)
		return nil, errors.Mark(err, gpu.ErrPlatformInit)
	}

	d.surface = s
	d.log.WithFields(logrus.Fields{
		"format": s.textureFormat,
		"width":  s.extent.Width,
		"height": s.extent.Height,
		"images": len(s.images),
	}).Info("Window claimed")
	return s, nil
}

func (d *Device) createSwapchain(s *Surface) error {
	support, err := d.querySwapchainSupport(d.physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query swapchain support")
	}

	surfaceFormat := chooseSwapSurfaceFormat(support.Formats)
	presentMode := chooseSwapPresentMode(support.PresentModes)
	w, h := s.window.VulkanGetDrawableSize()
	extent := chooseSwapExtent(support.Capabilities, int(w), int(h))

	s.textureFormat = fromVkFormat(surfaceFormat.Format)
	if s.textureFormat == gpu.TextureFormatInvalid {
		return errors.Newf("surface format %v is not supported", surfaceFormat.Format)
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if *d.queueFamilies.GraphicsFamily != *d.queueFamilies.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *d.queueFamilies.GraphicsFamily, *d.queueFamilies.PresentFamily)
	}

	s.swapchain, _, err = d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.surfaceHandle,

		MinImageCount:    chooseImageCount(support.Capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	s.format = surfaceFormat.Format
	s.extent = extent

	s.images, _, err = d.swapchainExtension.GetSwapchainImages(s.swapchain)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	for _, image := range s.images {
		view, _, err := d.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   s.format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}
		s.views = append(s.views, view)
	}

	for i := 0; i < MaxFramesInFlight; i++ {
		semaphore, _, err := d.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "create semaphore")
		}
		s.imageAvailable = append(s.imageAvailable, semaphore)
	}

	for i := 0; i < len(s.images); i++ {
		semaphore, _, err := d.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "create semaphore")
		}
		s.renderFinished = append(s.renderFinished, semaphore)
	}
	s.imagesInFlight = make([]*submission, len(s.images))

	return nil
}

func (d *Device) destroySwapchain(s *Surface) {
	for key, framebuffers := range s.framebuffers {
		for _, framebuffer := range framebuffers {
			if framebuffer.Initialized() {
				d.deviceDriver.DestroyFramebuffer(framebuffer, nil)
			}
		}
		delete(s.framebuffers, key)
	}

	for _, semaphore := range s.renderFinished {
		d.deviceDriver.DestroySemaphore(semaphore, nil)
	}
	s.renderFinished = nil

	for _, semaphore := range s.imageAvailable {
		d.deviceDriver.DestroySemaphore(semaphore, nil)
	}
	s.imageAvailable = nil

	for _, view := range s.views {
		d.deviceDriver.DestroyImageView(view, nil)
	}
	s.views = nil

	if s.swapchain.Initialized() {
		d.swapchainExtension.DestroySwapchain(s.swapchain, nil)
		s.swapchain = khr_swapchain.Swapchain{}
	}
}

// ReleaseWindow waits for the GPU and destroys the swapchain of surface.
func (d *Device) ReleaseWindow(surface gpu.Surface) {
	s, ok := surface.(*Surface)
	if !ok || s != d.surface {
		return
	}

	if err := d.WaitIdle(); err != nil {
		d.log.WithError(err).Warn("Releasing window without idle wait")
	}
	d.collect()

	d.destroySwapchain(s)
	d.surface = nil
}

func (d *Device) SwapchainTextureFormat(surface gpu.Surface) gpu.TextureFormat {
	s, ok := surface.(*Surface)
	if !ok || s == nil || s != d.surface {
		return gpu.TextureFormatInvalid
	}
	return s.textureFormat
}

func (d *Device) framebuffer(s *Surface, key renderPassKey, renderPass core1_0.RenderPass, imageIndex int) (core1_0.Framebuffer, error) {
	framebuffers, ok := s.framebuffers[key]
	if !ok {
		framebuffers = make([]core1_0.Framebuffer, len(s.views))
		s.framebuffers[key] = framebuffers
	}
	if framebuffers[imageIndex].Initialized() {
		return framebuffers[imageIndex], nil
	}

	framebuffer, _, err := d.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: renderPass,
		Layers:     1,
		Attachments: []core1_0.ImageView{
			s.views[imageIndex],
		},
		Width:  s.extent.Width,
		Height: s.extent.Height,
	})
	if err != nil {
		return core1_0.Framebuffer{}, errors.Wrap(err, "create framebuffer")
	}

	framebuffers[imageIndex] = framebuffer
	return framebuffer, nil
}

// acquireImage waits until the current frame slot is free and acquires the
// next swapchain image. It returns -1 when the swapchain no longer matches
// the window. An image is returned together with an error when it was
// acquired but the submission last rendering into it could not be waited on;
// the caller still owns that image.
func (d *Device) acquireImage(s *Surface) (int, error) {
	frame := s.currentFrame
	if err := d.waitSubmission(s.frames[frame]); err != nil {
		return -1, err
	}

	imageIndex, res, err := d.swapchainExtension.AcquireNextImage(s.swapchain, common.NoTimeout, &s.imageAvailable[frame], nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		d.log.Debug("Swapchain out of date, skipping frame")
		return -1, nil
	} else if err != nil {
		return -1, errors.Wrap(err, "acquire swapchain image")
	}

	if err := d.waitSubmission(s.imagesInFlight[imageIndex]); err != nil {
		return imageIndex, err
	}
	return imageIndex, nil
}

// present queues imageIndex for display once sub has rendered into it.
func (d *Device) present(s *Surface, frame, imageIndex int, sub *submission) error {
	s.frames[frame] = sub
	s.imagesInFlight[imageIndex] = sub
	s.advance(frame)

	res, err := d.swapchainExtension.QueuePresent(d.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{s.renderFinished[imageIndex]},
		Swapchains:     []khr_swapchain.Swapchain{s.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		d.log.WithField("result", res).Debug("Swapchain no longer matches the window")
		return nil
	}
	return errors.Wrap(err, "present")
}

// advance moves to the frame slot after frame.
func (s *Surface) advance(frame int) {
	s.currentFrame = (frame + 1) % MaxFramesInFlight
}
