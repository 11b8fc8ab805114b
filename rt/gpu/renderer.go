// Package gpu draws chunk meshes with WebGPU: a shadow depth pass from the
// directional light followed by the lit colour pass.
package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxr/voxr/rt/shaders"
	"github.com/voxr/voxr/rt/volume"
)

const (
	ShadowMapSize = 4096
	depthFormat   = wgpu.TextureFormatDepth32Float
)

var ClearColor = wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// Frame is everything the renderer needs for one draw.
type Frame struct {
	Camera  CameraUniform
	Visible []*volume.Chunk
	Casters []*volume.Chunk
}

type ChunkRenderer struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Pipeline       *wgpu.RenderPipeline
	ShadowPipeline *wgpu.RenderPipeline

	cameraLayout *wgpu.BindGroupLayout
	chunkLayout  *wgpu.BindGroupLayout
	lightLayout  *wgpu.BindGroupLayout

	CameraBuf *wgpu.Buffer
	LightBuf  *wgpu.Buffer

	CameraBindGroup *wgpu.BindGroup
	LightBindGroup  *wgpu.BindGroup

	DepthTexture *wgpu.Texture
	DepthView    *wgpu.TextureView

	ShadowTexture *wgpu.Texture
	ShadowView    *wgpu.TextureView
	ShadowSampler *wgpu.Sampler

	buffers int
}

func NewChunkRenderer(device *wgpu.Device, format wgpu.TextureFormat, width, height uint32) (*ChunkRenderer, error) {
	r := &ChunkRenderer{Device: device, Queue: device.GetQueue()}

	var err error
	r.cameraLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ChunkCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cameraUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeDepth,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeComparison,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	// Shared by both pipelines so one bind group per chunk serves both passes.
	r.chunkLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ChunkOffsetBGL",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: chunkUniformSize,
			},
		}},
	})
	if err != nil {
		return nil, err
	}

	r.lightLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ShadowLightBGL",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: lightUniformSize,
			},
		}},
	})
	if err != nil {
		return nil, err
	}

	if err := r.createPipelines(format); err != nil {
		return nil, err
	}
	if err := r.createResources(); err != nil {
		return nil, err
	}
	if err := r.Resize(width, height); err != nil {
		return nil, err
	}
	return r, nil
}

func vertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(volume.Vertex{})),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatUint32, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatUint32, Offset: 16, ShaderLocation: 2},
		},
	}
}

func depthState(bias int32, slope float32) *wgpu.DepthStencilState {
	always := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	return &wgpu.DepthStencilState{
		Format:              depthFormat,
		DepthWriteEnabled:   true,
		DepthCompare:        wgpu.CompareFunctionLess,
		StencilFront:        always,
		StencilBack:         always,
		DepthBias:           bias,
		DepthBiasSlopeScale: slope,
	}
}

func (r *ChunkRenderer) createPipelines(format wgpu.TextureFormat) error {
	chunkMod, err := r.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Chunk Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ChunkWGSL},
	})
	if err != nil {
		return fmt.Errorf("chunk shader: %w", err)
	}
	shadowMod, err := r.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Shadow Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ShadowWGSL},
	})
	if err != nil {
		return fmt.Errorf("shadow shader: %w", err)
	}

	layout, err := r.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ChunkPipelineLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.cameraLayout, r.chunkLayout},
	})
	if err != nil {
		return err
	}
	r.Pipeline, err = r.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Chunk Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     chunkMod,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     chunkMod,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: depthState(0, 0),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("chunk pipeline: %w", err)
	}

	shadowLayout, err := r.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ShadowPipelineLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.lightLayout, r.chunkLayout},
	})
	if err != nil {
		return err
	}
	r.ShadowPipeline, err = r.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Shadow Pipeline",
		Layout: shadowLayout,
		Vertex: wgpu.VertexState{
			Module:     shadowMod,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout()},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
			CullMode: wgpu.CullModeNone,
		},
		DepthStencil: depthState(2, 2),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("shadow pipeline: %w", err)
	}
	return nil
}

func (r *ChunkRenderer) createResources() error {
	var err error
	r.CameraBuf, err = r.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CameraUB",
		Size:  cameraUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	r.LightBuf, err = r.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "LightUB",
		Size:  lightUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}

	r.ShadowTexture, err = r.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Shadow Map",
		Size:          wgpu.Extent3D{Width: ShadowMapSize, Height: ShadowMapSize, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return err
	}
	r.ShadowView, err = r.ShadowTexture.CreateView(nil)
	if err != nil {
		return err
	}
	r.ShadowSampler, err = r.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	r.CameraBindGroup, err = r.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ChunkCameraBG",
		Layout: r.cameraLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.CameraBuf, Size: cameraUniformSize},
			{Binding: 1, TextureView: r.ShadowView},
			{Binding: 2, Sampler: r.ShadowSampler},
		},
	})
	if err != nil {
		return err
	}
	r.LightBindGroup, err = r.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ShadowLightBG",
		Layout: r.lightLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.LightBuf, Size: lightUniformSize},
		},
	})
	return err
}

// Resize recreates the depth target for a new surface size.
func (r *ChunkRenderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if r.DepthView != nil {
		r.DepthView.Release()
	}
	if r.DepthTexture != nil {
		r.DepthTexture.Release()
	}

	var err error
	r.DepthTexture, err = r.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	r.DepthView, err = r.DepthTexture.CreateView(nil)
	return err
}

// NewBuffer allocates the GPU side of one chunk mesh.
func (r *ChunkRenderer) NewBuffer() volume.MeshBuffer {
	b, err := newChunkBuffer(r)
	if err != nil {
		panic(err)
	}
	r.buffers++
	return b
}

// Buffers is the number of live chunk buffers.
func (r *ChunkRenderer) Buffers() int { return r.buffers }

// Draw records the shadow pass and the colour pass into encoder, rendering
// to target.
func (r *ChunkRenderer) Draw(encoder *wgpu.CommandEncoder, target *wgpu.TextureView, f Frame) error {
	r.Queue.WriteBuffer(r.CameraBuf, 0, f.Camera.Bytes())
	r.Queue.WriteBuffer(r.LightBuf, 0, mat4ToBytes(f.Camera.ShadowViewProj))

	sPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Shadow Pass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.ShadowView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	sPass.SetPipeline(r.ShadowPipeline)
	sPass.SetBindGroup(0, r.LightBindGroup, nil)
	for _, c := range f.Casters {
		r.drawChunk(sPass, c)
	}
	if err := sPass.End(); err != nil {
		return fmt.Errorf("shadow pass: %w", err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Chunk Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: ClearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	pass.SetPipeline(r.Pipeline)
	pass.SetBindGroup(0, r.CameraBindGroup, nil)
	for _, c := range f.Visible {
		r.drawChunk(pass, c)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("chunk pass: %w", err)
	}
	return nil
}

func (r *ChunkRenderer) drawChunk(pass *wgpu.RenderPassEncoder, c *volume.Chunk) {
	b, ok := c.Buffer().(*ChunkBuffer)
	if !ok || b.count == 0 {
		return
	}
	b.place(c.Position)
	pass.SetBindGroup(1, b.bindGroup, nil)
	pass.SetVertexBuffer(0, b.vertices, 0, b.vertices.GetSize())
	pass.Draw(b.count, 1, 0, 0)
}

func (r *ChunkRenderer) Release() {
	if r.DepthView != nil {
		r.DepthView.Release()
		r.DepthTexture.Release()
	}
	r.CameraBindGroup.Release()
	r.LightBindGroup.Release()
	r.ShadowSampler.Release()
	r.ShadowView.Release()
	r.ShadowTexture.Release()
	r.CameraBuf.Release()
	r.LightBuf.Release()
	r.Pipeline.Release()
	r.ShadowPipeline.Release()
}

// ChunkBuffer holds one chunk's vertices and its world offset uniform.
type ChunkBuffer struct {
	r         *ChunkRenderer
	vertices  *wgpu.Buffer
	count     uint32
	offset    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	placed    mgl32.Vec3
	hasPlace  bool
}

func newChunkBuffer(r *ChunkRenderer) (*ChunkBuffer, error) {
	offset, err := r.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ChunkOffsetUB",
		Size:  chunkUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	bg, err := r.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ChunkOffsetBG",
		Layout: r.chunkLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: offset, Size: chunkUniformSize},
		},
	})
	if err != nil {
		offset.Release()
		return nil, err
	}
	return &ChunkBuffer{r: r, offset: offset, bindGroup: bg}, nil
}

// Upload replaces the mesh. The vertex buffer only grows.
func (b *ChunkBuffer) Upload(vertices []volume.Vertex) {
	b.count = uint32(len(vertices))
	if len(vertices) == 0 {
		return
	}
	size := uint64(len(vertices) * int(unsafe.Sizeof(volume.Vertex{})))
	if b.vertices == nil || b.vertices.GetSize() < size {
		if b.vertices != nil {
			b.vertices.Release()
		}
		var err error
		b.vertices, err = b.r.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "ChunkVB",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
	}
	b.r.Queue.WriteBuffer(b.vertices, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size))
}

func (b *ChunkBuffer) place(pos mgl32.Vec3) {
	if b.hasPlace && b.placed == pos {
		return
	}
	b.r.Queue.WriteBuffer(b.offset, 0, vec3ToBytesPadded(pos))
	b.placed, b.hasPlace = pos, true
}

func (b *ChunkBuffer) Release() {
	if b.vertices != nil {
		b.vertices.Release()
		b.vertices = nil
	}
	b.bindGroup.Release()
	b.offset.Release()
	b.r.buffers--
}
