// Package rcur 实现 RCUR 光标资源容器：固定 3 槽位（远箭头/箭头/I 形光标）的二进制打包格式，
// 以及旧版 base64 文本格式的解析。
//
// 布局（小端序）：
//
//	offset 0   : 5 字节    magic = "RCUR\x00"
//	offset 5   : 4 字节    version (uint32)，当前为 2
//	offset 9   : 12 字节   3 个 uint32 长度，槽位顺序 [far-arrow, arrow, i-beam]
//	offset 21  : 变长      按同一槽位顺序拼接的图像字节
package rcur

// Magic 为容器文件头标识。
var Magic = [5]byte{'R', 'C', 'U', 'R', 0x00}

const (
	// Version 为当前写出的格式版本。
	Version uint32 = 2
	// SlotCount 为槽位数量；格式常量，不随版本变化。
	SlotCount = 3
	// HeaderSize = magic + version + 长度表。
	HeaderSize = len(Magic) + 4 + SlotCount*4
)

// Slot 以位置标识图像槽位；容器内不存储槽位名，顺序即语义。
type Slot int

const (
	SlotArrowFar Slot = iota
	SlotArrow
	SlotIBeam
)

var slotNames = [SlotCount]string{"far-arrow", "arrow", "i-beam"}

// outputNames: 提取时各槽位的固定输出文件名。
var outputNames = [SlotCount]string{"ArrowFar.png", "Arrow.png", "IBeam.png"}

func (s Slot) String() string {
	if s < 0 || int(s) >= SlotCount {
		return "slot(?)"
	}
	return slotNames[s]
}

// FileName 返回该槽位的输出文件名。
func (s Slot) FileName() string {
	if s < 0 || int(s) >= SlotCount {
		return ""
	}
	return outputNames[s]
}

// Slots 按容器顺序返回全部槽位。
func Slots() [SlotCount]Slot {
	return [SlotCount]Slot{SlotArrowFar, SlotArrow, SlotIBeam}
}

// Images 为 3 个槽位的原始图像字节；零长度槽位合法。
type Images [SlotCount][]byte

// Get 返回指定槽位的字节。
func (im Images) Get(s Slot) []byte { return im[s] }

// Container 为解码结果。
type Container struct {
	Version uint32
	Images  Images
}

// Warning 在版本号与 Version 不一致时返回 *VersionMismatch，否则为 nil。
// 版本不一致不影响解码：槽位布局在已知版本间未变化。
func (c Container) Warning() error {
	if c.Version == Version {
		return nil
	}
	return &VersionMismatch{Found: c.Version, Expected: Version}
}

// Size 返回容器编码后的总字节数。
func (c Container) Size() int {
	n := HeaderSize
	for _, b := range c.Images {
		n += len(b)
	}
	return n
}
