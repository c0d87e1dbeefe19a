// Package batch 对一组独立文件逐个执行转换/提取，可选有界并发，
// 报告顺序与输入顺序一致。
package batch
