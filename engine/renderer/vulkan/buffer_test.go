package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestGetAlignment(t *testing.T) {
	for _, tc := range []struct {
		name         string
		instanceSize vk.DeviceSize
		alignment    vk.DeviceSize
		want         vk.DeviceSize
	}{
		{"zero alignment leaves size untouched", 100, 0, 100},
		{"already aligned", 256, 256, 256},
		{"rounds up to next multiple", 257, 256, 512},
		{"small size large alignment", 1, 256, 256},
		{"ubo sized", 192, 64, 192},
		{"ubo sized unaligned", 200, 64, 256},
		{"zero size", 0, 256, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := GetAlignment(tc.instanceSize, tc.alignment); got != tc.want {
				t.Errorf("GetAlignment(%d, %d) = %d, want %d", tc.instanceSize, tc.alignment, got, tc.want)
			}
		})
	}
}

func TestGetAlignmentProperties(t *testing.T) {
	alignments := []vk.DeviceSize{1, 2, 16, 64, 256}
	sizes := []vk.DeviceSize{1, 63, 64, 65, 255, 256, 257, 1000}

	for _, alignment := range alignments {
		for _, size := range sizes {
			got := GetAlignment(size, alignment)
			if got < size {
				t.Errorf("GetAlignment(%d, %d) = %d, smaller than input", size, alignment, got)
			}
			if got%alignment != 0 {
				t.Errorf("GetAlignment(%d, %d) = %d, not a multiple of %d", size, alignment, got, alignment)
			}
			// Idempotence: aligning an aligned size is a no-op.
			if again := GetAlignment(got, alignment); again != got {
				t.Errorf("GetAlignment(%d, %d) = %d, not idempotent (%d)", got, alignment, again, got)
			}
		}
	}
}

func TestWriteToUnmappedBufferPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when writing to an unmapped buffer")
		}
	}()
	buffer := &VulkanBuffer{}
	buffer.WriteToBuffer([]byte{0x01}, 0)
}

func TestIndexedSlotOffsets(t *testing.T) {
	buffer := &VulkanBuffer{
		InstanceCount: MaxFramesInFlight,
		InstanceSize:  200,
		AlignmentSize: GetAlignment(200, 64),
	}
	if buffer.AlignmentSize != 256 {
		t.Fatalf("AlignmentSize = %d, want 256", buffer.AlignmentSize)
	}
	for index := uint32(0); index < MaxFramesInFlight; index++ {
		info := buffer.DescriptorInfoForIndex(index)
		wantOffset := vk.DeviceSize(index) * 256
		if info.Offset != wantOffset {
			t.Errorf("slot %d offset = %d, want %d", index, info.Offset, wantOffset)
		}
		if info.Range != 256 {
			t.Errorf("slot %d range = %d, want 256", index, info.Range)
		}
	}
}
