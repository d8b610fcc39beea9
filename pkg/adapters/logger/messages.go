package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Severity prefixes
		"Warning: ": "警告: ",
		"Error: ":   "エラー: ",

		// Conversion
		"Reading MCAP file: %s":              "MCAP ファイルを読み込み中: %s",
		"Looking for topic: %s":              "トピックを検索中: %s",
		"Run ID: %s":                         "実行 ID: %s",
		"MCAP file not found at %s":          "MCAP ファイルが見つかりません: %s",
		"Video saved to %s with %d frames.":  "%s に %d フレームの動画を保存しました。",
		"Processed %d frames...":             "%d フレームを処理しました...",
		"Could not open video writer for %s": "%s の動画ライターを開けませんでした",
		"An unexpected error occurred: %v":   "予期しないエラーが発生しました: %v",
		"Writer error: %v":                   "ライターのエラー: %v",
		"Failed to probe output: %v":         "出力の解析に失敗しました: %v",
		"Failed to write output: %s":         "出力の書き込みに失敗しました: %s",

		"No images found on topic '%s' in '%s'. No video created.": "'%[2]s' のトピック '%[1]s' に画像が見つかりません。動画は作成されませんでした。",

		"Only %d frame(s) processed. Video might be very short or empty.": "%d フレームしか処理されませんでした。動画が非常に短いか空の可能性があります。",

		"Message duration in MCAP: %.2f s. Actual average FPS from messages: %.2f": "MCAP 内のメッセージ期間: %.2f 秒。メッセージから求めた実際の平均 FPS: %.2f",

		"Specified FPS (%g) differs significantly from detected average FPS (%.2f). Playback speed might be affected.": "指定された FPS (%g) は検出された平均 FPS (%.2f) と大きく異なります。再生速度に影響する可能性があります。",

		// Extraction
		"Saving frames to '%s'":      "フレームを '%s' に保存中",
		"Saved %d frames...":         "%d フレームを保存しました...",
		"Done! Extracted %d frames.": "完了! %d フレームを抽出しました。",

		"Extracting images from topic '%s' in '%s'": "'%[2]s' のトピック '%[1]s' から画像を抽出中",

		"No messages found on topic '%s'. No frames were extracted.": "トピック '%s' にメッセージが見つかりません。フレームは抽出されませんでした。",

		"Failed to encode frame at log time %d: %v": "ログ時刻 %d のフレームのエンコードに失敗しました: %v",

		// Reader
		"No summary section: %s": "サマリーセクションがありません: %s",

		"MCAP file has no index, reading messages in file order": "MCAP ファイルにインデックスがないため、ファイル順にメッセージを読み込みます",

		// Decode stage
		"Decoded %s image %dx%d": "%s 画像をデコードしました %dx%d",

		"Attempting fallback encoding passthrough for %s...": "%s に対してフォールバックとしてパススルーを試みます...",

		// Encode stage
		"Encoding %dx%d at %.1f fps (color: %v)": "%dx%d を %.1f fps でエンコード中 (カラー: %v)",

		"Frame size %dx%d differs from video size %dx%d, resizing": "フレームサイズ %dx%d が動画サイズ %dx%d と異なるため、リサイズします",

		// Remux stage
		"Topic carries H.264 video, remuxing without re-encoding": "トピックは H.264 動画です。再エンコードせずにリマックスします",

		"Skipping access unit at log time %d before first keyframe": "最初のキーフレーム以前のログ時刻 %d のアクセスユニットをスキップします",

		"Skipping access unit at log time %d: %v": "ログ時刻 %d のアクセスユニットをスキップします: %v",

		"Skipping H.264 records on topic %s: compressed video can only be remuxed, not re-encoded": "トピック %s の H.264 レコードをスキップします: 圧縮動画はリマックスのみ可能で、再エンコードできません",

		"Skipping image records on topic %s: the stream is being remuxed as H.264": "トピック %s の画像レコードをスキップします: ストリームは H.264 としてリマックス中です",

		// Debug output
		"Failed to save debug frame %d: %v": "デバッグフレーム %d の保存に失敗しました: %v",
		"Failed to save run result: %v":     "実行結果の保存に失敗しました: %v",
		"Failed to marshal run result: %v":  "実行結果のシリアライズに失敗しました: %v",

		"Failed to save debug payload %d: %v": "デバッグペイロード %d の保存に失敗しました: %v",

		// Encoder selection
		"H.264 encoder not available, falling back to MPEG-4": "H.264 エンコーダーが利用できないため、MPEG-4 にフォールバックします",

		// Gateway monitor
		"POST %s for gateway %s": "ゲートウェイ %[2]s に対して %[1]s へ POST",
	})
}
